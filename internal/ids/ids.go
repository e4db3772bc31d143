package ids

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixTask  = "task"
	PrefixBlock = "blk"
)

var enc = base32.StdEncoding.WithPadding(base32.NoPadding)

// New returns prefix-<suffix> where suffix is 8 chars of lowercase base32.
// The suffix comes from the leading 40 random bits of a v4 UUID (~1 trillion values).
func New(prefix string) string {
	u := uuid.New()
	suffix := strings.ToLower(enc.EncodeToString(u[:5]))
	return prefix + "-" + suffix
}

// Unique keeps drawing ids until taken reports a free one.
func Unique(prefix string, taken func(id string) bool) string {
	for {
		id := New(prefix)
		if taken == nil || !taken(id) {
			return id
		}
	}
}

// Event returns a full UUID string for append-only event rows.
func Event() string {
	return uuid.NewString()
}
