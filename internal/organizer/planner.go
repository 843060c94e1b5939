package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/docksort/internal/category"
)

// WeekBucket names the Sunday-to-Saturday week containing t, e.g.
// "October 18-24". The month is the month of the Sunday and both days are
// zero padded, so a week spanning two months reads "September 27-03".
func WeekBucket(t time.Time) string {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	start := day.AddDate(0, 0, -int(day.Weekday()))
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("%s %02d-%02d", start.Month(), start.Day(), end.Day())
}

// Planner resolves destinations inside the organized root. A Planner
// belongs to a single plan: it remembers the targets it has handed out so
// two entries of the same pass never resolve to the same path.
type Planner struct {
	root     string
	reserved map[string]struct{}
}

// NewPlanner returns a planner for the organized root.
func NewPlanner(root string) *Planner {
	return &Planner{root: root, reserved: make(map[string]struct{})}
}

// Resolve computes where item goes when filed under cat on day now:
//
//	{root}/{category}/{week}[/{ext}]/{name}
//
// If that path is taken, a unique "name(n).ext" is computed against the
// category folder and the item is redirected to {root}/duplicates/ under
// that unique name. The duplicates folder itself is not probed.
func (p *Planner) Resolve(item Item, cat category.Category, now time.Time) Target {
	dir := filepath.Join(p.root, string(cat), WeekBucket(now))
	if !item.IsDir {
		if ext := category.Extension(item.Name); ext != "" {
			dir = filepath.Join(dir, ext)
		}
	}

	candidate := filepath.Join(dir, item.Name)
	if !p.occupied(candidate) {
		p.reserve(candidate)
		return Target{Path: candidate, Dir: dir, Name: item.Name}
	}

	unique := p.uniqueName(dir, item.Name)
	p.reserve(filepath.Join(dir, unique))

	dupDir := filepath.Join(p.root, string(category.Duplicates))
	target := Target{
		Path:      filepath.Join(dupDir, unique),
		Dir:       dupDir,
		Name:      unique,
		Duplicate: true,
	}
	p.reserve(target.Path)
	return target
}

// uniqueName appends "(1)", "(2)", ... before the extension until the name
// is free in dir.
func (p *Planner) uniqueName(dir, name string) string {
	base, suffix := category.SplitExt(name)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s(%d)%s", base, n, suffix)
		if !p.occupied(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}

func (p *Planner) occupied(path string) bool {
	if _, ok := p.reserved[path]; ok {
		return true
	}
	_, err := os.Lstat(path)
	return err == nil
}

func (p *Planner) reserve(path string) {
	p.reserved[path] = struct{}{}
}
