package organizer

import (
	"time"

	"github.com/blackwell-systems/docksort/internal/category"
)

// Mode selects which pass a plan belongs to.
type Mode string

const (
	// ModeOrganize files new arrivals from the docking station.
	ModeOrganize Mode = "organize"
	// ModeReorganize re-files drifted items inside the organized tree.
	ModeReorganize Mode = "reorganize"
)

// ParseMode accepts the CLI spellings of a mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "organize", "new", "1":
		return ModeOrganize, true
	case "reorganize", "existing", "2":
		return ModeReorganize, true
	}
	return "", false
}

// Item is a file or directory seen during a scan. Items are rebuilt on
// every pass.
type Item struct {
	Path  string
	Name  string
	IsDir bool
	Size  int64
}

// Decision pairs an item with the category it should be filed under.
// From is the category folder the item currently sits in and is only set
// by reorganize passes.
type Decision struct {
	Item     Item
	Category category.Category
	From     string
}

// Target is a resolved destination.
type Target struct {
	// Path is where the item will be moved.
	Path string
	// Dir is the directory containing Path; it is created on apply.
	Dir string
	// Name is the collision-free name computed in the category folder.
	// For duplicates it differs from the source name.
	Name string
	// Duplicate is set when a name collision redirected the item to the
	// duplicates folder.
	Duplicate bool
}

// Entry is one planned move.
type Entry struct {
	Decision
	Target Target
}

// Plan is the complete set of moves for one pass. It is built before any
// item is touched and consumed once by Engine.Apply.
type Plan struct {
	ID        string
	Mode      Mode
	CreatedAt time.Time
	Entries   []Entry
}

// Empty reports whether the pass has nothing to do.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Entries) == 0
}

// Outcome is the result class of a single move.
type Outcome string

const (
	OutcomeMoved     Outcome = "moved"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// Result records what happened to one entry.
type Result struct {
	Entry   Entry
	Outcome Outcome
	Err     error
}

// Report summarizes an applied plan.
type Report struct {
	Plan     *Plan
	Results  []Result
	Started  time.Time
	Finished time.Time
}

// Counts returns the number of results per outcome.
func (r *Report) Counts() (moved, duplicates, failed int) {
	if r == nil {
		return 0, 0, 0
	}
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeMoved:
			moved++
		case OutcomeDuplicate:
			duplicates++
		case OutcomeFailed:
			failed++
		}
	}
	return moved, duplicates, failed
}
