package domain

// NotificationOutcome is the per-article result of a dispatch attempt
type NotificationOutcome struct {
	Identity  string
	Delivered bool
	Err       error
}

// FeedStatus describes how a single feed fared within one invocation
type FeedStatus string

// feed statuses
const (
	FeedStatusOK      FeedStatus = "ok"
	FeedStatusSkipped FeedStatus = "skipped" // fetch or load failed, or a concurrent run won the save race
	FeedStatusError   FeedStatus = "error"   // save failed after dispatch
)

// FeedReport summarizes one feed's processing within an invocation
type FeedReport struct {
	URL       string
	Status    FeedStatus
	NewCount  int
	SentCount int
	Err       error
}
