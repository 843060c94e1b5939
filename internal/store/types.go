package store

import "time"

// Pass is one applied organize or reorganize pass.
type Pass struct {
	ID         string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Planned    int
	Moved      int
	Duplicates int
	Failed     int
}

// Move records the outcome of one planned move.
type Move struct {
	ID           int64
	PassID       string
	Source       string
	Target       string
	Category     string
	FromCategory string // set by reorganize passes
	IsDir        bool
	SizeBytes    int64
	Outcome      string // "moved", "duplicate" or "failed"
	Error        string
	RecordedAt   time.Time
}

// Totals aggregates the whole journal.
type Totals struct {
	Passes     int
	Moved      int
	Duplicates int
	Failed     int
	LastPassAt time.Time
}
