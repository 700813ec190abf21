// Package diff decides which articles of a fetch are new relative to the
// persisted seen state. It is deliberately free of I/O so it can be tested
// without a storage backend.
package diff

import (
	"sort"
	"time"

	"github.com/umputun/feedmailer/pkg/domain"
)

// Engine computes new articles and the next seen state
type Engine struct {
	maxKnownIDs int // 0 means the known set grows without bound
}

// NewEngine creates a diff engine. maxKnownIDs limits how many identities the
// state retains, trimming the oldest first; identities present in the current
// fetch are never trimmed. Zero disables the cap. A capped state accepts a
// small risk of re-notifying a very old entry the provider re-adds, in
// exchange for bounded storage.
func NewEngine(maxKnownIDs int) *Engine {
	return &Engine{maxKnownIDs: maxKnownIDs}
}

// Diff returns the articles of current that were never seen before, in feed
// order, and the state to persist for the next check. The prior state is never
// mutated. On the very first check of a feed (prior not initialized) nothing
// is reported as new, but every identity is captured, so a subscriber is not
// flooded with the feed's entire backlog.
func (e *Engine) Diff(current []domain.Article, prior domain.SeenState, now time.Time) ([]domain.Article, domain.SeenState) {
	next := domain.SeenState{
		Initialized:   true,
		KnownIDs:      make(map[string]time.Time, len(prior.KnownIDs)+len(current)),
		LastCheckedAt: now,
		Version:       prior.Version,
	}
	for id, firstSeen := range prior.KnownIDs {
		next.KnownIDs[id] = firstSeen
	}

	newArticles := []domain.Article{}
	for _, a := range current {
		if _, ok := next.KnownIDs[a.Identity]; ok {
			continue
		}
		next.KnownIDs[a.Identity] = now
		if prior.Initialized {
			newArticles = append(newArticles, a)
		}
	}

	e.trim(&next, current)
	return newArticles, next
}

// trim enforces the identity cap, evicting oldest-first but keeping everything
// the current fetch still carries
func (e *Engine) trim(state *domain.SeenState, current []domain.Article) {
	if e.maxKnownIDs <= 0 || len(state.KnownIDs) <= e.maxKnownIDs {
		return
	}

	inCurrent := make(map[string]struct{}, len(current))
	for _, a := range current {
		inCurrent[a.Identity] = struct{}{}
	}

	type knownID struct {
		id        string
		firstSeen time.Time
	}
	evictable := make([]knownID, 0, len(state.KnownIDs))
	for id, firstSeen := range state.KnownIDs {
		if _, ok := inCurrent[id]; ok {
			continue
		}
		evictable = append(evictable, knownID{id: id, firstSeen: firstSeen})
	}
	sort.Slice(evictable, func(i, j int) bool {
		if evictable[i].firstSeen.Equal(evictable[j].firstSeen) {
			return evictable[i].id < evictable[j].id // stable order for equal timestamps
		}
		return evictable[i].firstSeen.Before(evictable[j].firstSeen)
	})

	excess := len(state.KnownIDs) - e.maxKnownIDs
	for i := 0; i < excess && i < len(evictable); i++ {
		delete(state.KnownIDs, evictable[i].id)
	}
}
