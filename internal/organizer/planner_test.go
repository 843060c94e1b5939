package organizer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/docksort/internal/category"
)

func TestWeekBucket(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"sunday starts week", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), "October 18-24"},
		{"monday", time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC), "October 18-24"},
		{"saturday ends week", time.Date(2026, 10, 24, 23, 59, 59, 0, time.UTC), "October 18-24"},
		{"next sunday", time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC), "October 25-31"},
		{"spans months", time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC), "September 27-03"},
		{"spans years", time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC), "December 27-02"},
		{"single digit days padded", time.Date(2026, 11, 3, 12, 0, 0, 0, time.UTC), "November 01-07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekBucket(tt.date); got != tt.want {
				t.Errorf("WeekBucket(%s) = %q, want %q", tt.date.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestWeekBucket_SameWeekEqualAdjacentDiffer(t *testing.T) {
	start := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC) // Sunday
	for week := 0; week < 60; week++ {
		sunday := start.AddDate(0, 0, 7*week)
		want := WeekBucket(sunday)
		for day := 1; day < 7; day++ {
			d := sunday.AddDate(0, 0, day).Add(time.Duration(day) * time.Hour)
			if got := WeekBucket(d); got != want {
				t.Fatalf("WeekBucket(%s) = %q, want %q (same week as %s)",
					d.Format(time.DateOnly), got, want, sunday.Format(time.DateOnly))
			}
		}
		if next := WeekBucket(sunday.AddDate(0, 0, 7)); next == want {
			t.Fatalf("adjacent weeks share bucket %q", want)
		}
	}
}

func TestPlannerResolve_Canonical(t *testing.T) {
	root := t.TempDir()
	p := NewPlanner(root)

	tests := []struct {
		name string
		item Item
		cat  category.Category
		want string
	}{
		{
			name: "file with extension",
			item: Item{Name: "report.PDF"},
			cat:  category.Documents,
			want: filepath.Join(root, "documents", fixedWeek, "pdf", "report.PDF"),
		},
		{
			name: "file without extension",
			item: Item{Name: "Makefile"},
			cat:  category.Other,
			want: filepath.Join(root, "other", fixedWeek, "Makefile"),
		},
		{
			name: "directory has no extension segment",
			item: Item{Name: "site.v2", IsDir: true},
			cat:  category.Projects,
			want: filepath.Join(root, "projects", fixedWeek, "site.v2"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Resolve(tt.item, tt.cat, fixedNow)
			if got.Path != tt.want {
				t.Errorf("Resolve().Path = %q, want %q", got.Path, tt.want)
			}
			if got.Dir != filepath.Dir(tt.want) {
				t.Errorf("Resolve().Dir = %q, want %q", got.Dir, filepath.Dir(tt.want))
			}
			if got.Duplicate {
				t.Error("Resolve().Duplicate = true, want false")
			}
			if got.Name != tt.item.Name {
				t.Errorf("Resolve().Name = %q, want %q", got.Name, tt.item.Name)
			}
		})
	}
}

func TestPlannerResolve_CollisionRedirectsToDuplicates(t *testing.T) {
	root := t.TempDir()
	bucket := filepath.Join(root, "documents", fixedWeek, "pdf")
	writeFile(t, filepath.Join(bucket, "report.pdf"), []byte("old"))

	got := NewPlanner(root).Resolve(Item{Name: "report.pdf"}, category.Documents, fixedNow)

	want := filepath.Join(root, "duplicates", "report(1).pdf")
	if got.Path != want {
		t.Errorf("Resolve().Path = %q, want %q", got.Path, want)
	}
	if !got.Duplicate {
		t.Error("Resolve().Duplicate = false, want true")
	}
	if got.Name != "report(1).pdf" {
		t.Errorf("Resolve().Name = %q, want %q", got.Name, "report(1).pdf")
	}
	if got.Dir != filepath.Join(root, "duplicates") {
		t.Errorf("Resolve().Dir = %q", got.Dir)
	}
}

func TestPlannerResolve_UniqueNameProbesCategoryFolder(t *testing.T) {
	root := t.TempDir()
	bucket := filepath.Join(root, "documents", fixedWeek, "pdf")
	writeFile(t, filepath.Join(bucket, "report.pdf"), []byte("a"))
	writeFile(t, filepath.Join(bucket, "report(1).pdf"), []byte("b"))
	// Existing duplicates do not influence the counter.
	writeFile(t, filepath.Join(root, "duplicates", "report(2).pdf"), []byte("c"))

	got := NewPlanner(root).Resolve(Item{Name: "report.pdf"}, category.Documents, fixedNow)

	if want := filepath.Join(root, "duplicates", "report(2).pdf"); got.Path != want {
		t.Errorf("Resolve().Path = %q, want %q", got.Path, want)
	}
}

func TestPlannerResolve_DirectoryCollision(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "projects", fixedWeek, "proj", "main.py"), []byte("x"))

	got := NewPlanner(root).Resolve(Item{Name: "proj", IsDir: true}, category.Projects, fixedNow)

	if want := filepath.Join(root, "duplicates", "proj(1)"); got.Path != want {
		t.Errorf("Resolve().Path = %q, want %q", got.Path, want)
	}
}

func TestPlannerResolve_ReservesWithinPlan(t *testing.T) {
	root := t.TempDir()
	p := NewPlanner(root)
	item := Item{Name: "song.mp3"}

	first := p.Resolve(item, category.Audio, fixedNow)
	second := p.Resolve(item, category.Audio, fixedNow)
	third := p.Resolve(item, category.Audio, fixedNow)

	if first.Duplicate {
		t.Errorf("first Resolve() = %+v, want canonical target", first)
	}
	if !second.Duplicate || second.Name != "song(1).mp3" {
		t.Errorf("second Resolve() = %+v, want duplicates/song(1).mp3", second)
	}
	if !third.Duplicate || third.Name != "song(2).mp3" {
		t.Errorf("third Resolve() = %+v, want duplicates/song(2).mp3", third)
	}
}
