package adapter

import "time"

// Clock is the time source of the indexer. Times are UTC so that they compare
// cleanly with block timestamps.
//
//go:generate mockgen -source=clock.go -destination=../mocks/clock.go -package=mocks -mock_names=Clock=MockClock
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// After fires once d has elapsed, e.g. the wait between sweeper passes
	After(d time.Duration) <-chan time.Time
}

type utcClock struct{}

func NewClock() Clock {
	return utcClock{}
}

func (utcClock) Now() time.Time {
	return time.Now().UTC()
}

func (utcClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (utcClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
