package domain

import "time"

// Article represents one normalized feed entry
type Article struct {
	Identity  string     // stable key: entry GUID when present, link otherwise
	Title     string
	Link      string
	Content   string     // feed-provided content or description, may be empty
	Published *time.Time // nil when the feed omits a publication date
}
