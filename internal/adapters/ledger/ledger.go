// Package ledger remembers which record keys were already submitted so a
// later pass does not upload them again.
package ledger

import (
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	"github.com/patrickmn/go-cache"
)

const DefaultTTL = 48 * time.Hour

// Ledger is an in-memory UploadLedger whose keys expire after a TTL. The
// TTL should cover the window the source listings can reach back into.
type Ledger struct {
	keys *cache.Cache
}

var _ ports.UploadLedger = (*Ledger)(nil)

func New(ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{keys: cache.New(ttl, ttl/4)}
}

func (l *Ledger) Seen(key string) bool {
	_, found := l.keys.Get(key)
	return found
}

func (l *Ledger) Mark(keys ...string) {
	for _, key := range keys {
		l.keys.SetDefault(key, struct{}{})
	}
}

func (l *Ledger) Len() int {
	return l.keys.ItemCount()
}

// Reset forgets every key, e.g. after the upload target changed.
func (l *Ledger) Reset() {
	l.keys.Flush()
}
