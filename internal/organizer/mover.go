package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

var (
	// ErrSourceVanished means the item disappeared between planning and
	// moving.
	ErrSourceVanished = errors.New("source no longer exists")
	// ErrTargetExists means something already occupies the destination.
	// Moves never overwrite.
	ErrTargetExists = errors.New("target already exists")
	// ErrCrossDevice means source and target are on different filesystems
	// and cross-device copying is disabled.
	ErrCrossDevice = errors.New("source and target are on different devices")
	// ErrPermission means the filesystem refused the move.
	ErrPermission = errors.New("permission denied")
)

// Mover relocates whole files or directory trees.
type Mover struct {
	crossDeviceCopy bool
	rename          func(oldpath, newpath string) error
}

// NewMover returns a mover. With crossDeviceCopy set, a rename that fails
// because the target lives on another filesystem falls back to a verified
// copy followed by removal of the source.
func NewMover(crossDeviceCopy bool) *Mover {
	return &Mover{crossDeviceCopy: crossDeviceCopy, rename: os.Rename}
}

// Move moves the entry's item to its target path, creating the target
// directory as needed. Nothing is retried; the item stays where it is on
// failure.
func (m *Mover) Move(entry Entry) Result {
	res := Result{Entry: entry, Outcome: OutcomeMoved}
	if entry.Target.Duplicate {
		res.Outcome = OutcomeDuplicate
	}
	if err := m.move(entry.Item.Path, entry.Target); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
	}
	return res
}

func (m *Mover) move(src string, target Target) error {
	if _, err := os.Lstat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("move %s: %w", src, ErrSourceVanished)
		}
		return classifyMoveError(src, err)
	}

	if err := os.MkdirAll(target.Dir, 0o755); err != nil {
		return classifyMoveError(src, fmt.Errorf("create %s: %w", target.Dir, err))
	}

	if _, err := os.Lstat(target.Path); err == nil {
		return fmt.Errorf("move %s: %w: %s", src, ErrTargetExists, target.Path)
	}

	err := m.rename(src, target.Path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return classifyMoveError(src, err)
	}
	if !m.crossDeviceCopy {
		return fmt.Errorf("move %s: %w", src, ErrCrossDevice)
	}

	if err := copyTree(src, target.Path); err != nil {
		_ = os.RemoveAll(target.Path)
		return classifyMoveError(src, fmt.Errorf("cross-device copy: %w", err))
	}
	if err := os.RemoveAll(src); err != nil {
		return classifyMoveError(src, fmt.Errorf("remove source after copy: %w", err))
	}
	return nil
}

func classifyMoveError(src string, err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("move %s: %w: %w", src, ErrPermission, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("move %s: %w: %w", src, ErrSourceVanished, err)
	default:
		return fmt.Errorf("move %s: %w", src, err)
	}
}
