package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SaveFunc persists whatever the caller considers dirty.
type SaveFunc func(ctx context.Context) error

// DebouncedSaver coalesces bursts of Notify calls into one save after a quiet period.
type DebouncedSaver struct {
	save     SaveFunc
	debounce time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	running bool
	lastErr error
}

type DebouncedSaverOpts struct {
	Save     SaveFunc
	Debounce time.Duration
	Logger   *zap.Logger
}

func NewDebouncedSaver(opts DebouncedSaverOpts) *DebouncedSaver {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	return &DebouncedSaver{
		save:     opts.Save,
		debounce: debounce,
		log:      log,
	}
}

func (d *DebouncedSaver) Notify() {
	if d == nil || d.save == nil {
		return
	}

	d.mu.Lock()
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.debounce, d.onTimer)
		d.mu.Unlock()
		return
	}
	d.timer.Reset(d.debounce)
	d.mu.Unlock()
}

// Flush stops the timer and saves synchronously if anything is pending.
func (d *DebouncedSaver) Flush(ctx context.Context) error {
	if d == nil || d.save == nil {
		return nil
	}
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	for d.running {
		d.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		d.mu.Lock()
	}
	pending := d.pending
	d.pending = false
	d.mu.Unlock()

	if !pending {
		return d.Err()
	}
	err := d.save(ctx)
	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
	return err
}

// Err returns the result of the most recent save.
func (d *DebouncedSaver) Err() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

func (d *DebouncedSaver) onTimer() {
	d.mu.Lock()
	if d.running {
		// A save is in flight; try again once it settles.
		if d.timer != nil {
			d.timer.Reset(d.debounce)
		}
		d.mu.Unlock()
		return
	}
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.running = true
	d.mu.Unlock()

	err := d.save(context.Background())
	if err != nil {
		d.log.Warn("debounced save failed", zap.Error(err))
	}

	d.mu.Lock()
	d.running = false
	d.lastErr = err
	if d.pending && d.timer != nil {
		d.timer.Reset(d.debounce)
	}
	d.mu.Unlock()
}
