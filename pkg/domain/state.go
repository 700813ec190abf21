package domain

import "time"

// SeenState records which article identities were already processed for a feed.
// Identities map to the time they were first observed, which gives the optional
// size cap a deterministic oldest-first eviction order.
type SeenState struct {
	Initialized   bool
	KnownIDs      map[string]time.Time
	LastCheckedAt time.Time
	Version       int64 // storage CAS token, 0 for a state never persisted
}

// NewSeenState returns a fresh state for a feed that was never checked
func NewSeenState() SeenState {
	return SeenState{KnownIDs: map[string]time.Time{}}
}

// Knows reports whether the identity was observed before
func (s SeenState) Knows(identity string) bool {
	_, ok := s.KnownIDs[identity]
	return ok
}
