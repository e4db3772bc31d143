package tui

import (
	"context"
	"sync"
	"time"

	"lobster-cli/internal/model"
	"lobster-cli/internal/store"

	"go.uber.org/zap"
)

// snapshotSlot hands the latest snapshot from the UI goroutine to the saver's
// timer goroutine, so saves never read the engine concurrently.
type snapshotSlot struct {
	mu   sync.Mutex
	snap model.Snapshot
	ok   bool
}

func (s *snapshotSlot) put(snap model.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.ok = true
	s.mu.Unlock()
}

func (s *snapshotSlot) take() (model.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ok {
		return model.Snapshot{}, false
	}
	s.ok = false
	return s.snap, true
}

// persister writes tracker state: ticks are coalesced through a debounced
// saver, transitions are written through immediately along with their events.
type persister struct {
	st    store.Store
	slot  *snapshotSlot
	saver *store.DebouncedSaver
	log   *zap.Logger
}

func newPersister(st store.Store, debounce time.Duration, log *zap.Logger) *persister {
	if log == nil {
		log = zap.NewNop()
	}
	p := &persister{st: st, slot: &snapshotSlot{}, log: log}
	p.saver = store.NewDebouncedSaver(store.DebouncedSaverOpts{
		Debounce: debounce,
		Logger:   log,
		Save: func(ctx context.Context) error {
			snap, ok := p.slot.take()
			if !ok {
				return nil
			}
			return p.st.Save(ctx, snap)
		},
	})
	return p
}

// touch schedules a save of snap after the debounce window.
func (p *persister) touch(snap model.Snapshot) {
	p.slot.put(snap)
	p.saver.Notify()
}

// commit saves snap and appends evs in one transaction. Any pending
// debounced save is superseded by snap.
func (p *persister) commit(ctx context.Context, snap model.Snapshot, evs []model.Event) error {
	// Drop the older pending snapshot and wait out an in-flight save so this
	// write lands last.
	p.slot.take()
	if err := p.saver.Flush(ctx); err != nil {
		p.log.Warn("pending save failed", zap.Error(err))
	}
	return p.st.Commit(ctx, snap, evs)
}

func (p *persister) flush(ctx context.Context) error {
	return p.saver.Flush(ctx)
}
