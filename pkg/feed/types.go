package feed

import "time"

// Feed is the raw parsed form of a remote RSS/Atom feed
type Feed struct {
	Title   string
	Link    string
	Entries []RawEntry
}

// RawEntry is one feed item as the provider published it, before normalization.
// GUID and Link may both be empty for broken entries; the normalizer drops those.
type RawEntry struct {
	GUID      string
	Title     string
	Link      string
	Content   string
	Published *time.Time
}
