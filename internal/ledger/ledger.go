// Package ledger keeps the bounded, most-recent-first list of clips
// announced by the backend.
package ledger

import (
	"sync"

	"github.com/samber/lo"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// DefaultLimit is the number of clips retained.
const DefaultLimit = 50

type Ledger struct {
	mu    sync.RWMutex
	limit int
	clips []models.Clip
}

// New returns a ledger retaining at most limit clips; limit <= 0 uses
// DefaultLimit.
func New(limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ledger{limit: limit}
}

// Upsert replaces the clip with the same ID where it stands, or puts clip at
// the front. The oldest entries beyond the limit are dropped.
func (l *Ledger) Upsert(clip models.Clip) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, idx, ok := lo.FindIndexOf(l.clips, func(c models.Clip) bool { return c.ID == clip.ID }); ok {
		l.clips[idx] = clip
		return
	}

	l.clips = append([]models.Clip{clip}, l.clips...)
	if len(l.clips) > l.limit {
		l.clips = l.clips[:l.limit]
	}
}

// Replace swaps in clip only if a clip with its ID is already held.
func (l *Ledger) Replace(clip models.Clip) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, idx, ok := lo.FindIndexOf(l.clips, func(c models.Clip) bool { return c.ID == clip.ID }); ok {
		l.clips[idx] = clip
		return true
	}
	return false
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clips = nil
}

// List returns a copy, most recent first.
func (l *Ledger) List() []models.Clip {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Clip, len(l.clips))
	copy(out, l.clips)
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clips)
}
