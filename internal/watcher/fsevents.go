package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// inboxEvents turns filesystem activity in the docking station into
// debounced pass requests. Only the top level is watched; items are moved
// whole, so nested changes do not matter.
type inboxEvents struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	fire     func()
	logger   zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

func watchInbox(inbox string, debounce time.Duration, fire func(), logger zerolog.Logger) (*inboxEvents, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(inbox); err != nil {
		fsw.Close()
		return nil, err
	}

	e := &inboxEvents{
		fsw:      fsw,
		debounce: debounce,
		fire:     fire,
		logger:   logger,
		done:     make(chan struct{}),
	}
	e.wg.Add(1)
	go e.loop()
	return e, nil
}

func (e *inboxEvents) loop() {
	defer e.wg.Done()
	for {
		select {
		case ev, ok := <-e.fsw.Events:
			if !ok {
				return
			}
			if relevant(ev) {
				e.logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("inbox changed")
				e.arm()
			}
		case err, ok := <-e.fsw.Errors:
			if !ok {
				return
			}
			e.logger.Warn().Err(err).Msg("filesystem watch error")
		case <-e.done:
			return
		}
	}
}

// relevant reports whether ev may have produced something to organize.
func relevant(ev fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)
}

// arm (re)starts the debounce timer.
func (e *inboxEvents) arm() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.fire)
}

// Close stops watching and cancels a pending trigger.
func (e *inboxEvents) Close() {
	close(e.done)
	_ = e.fsw.Close()
	e.wg.Wait()

	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.mu.Unlock()
}
