// Package watcher runs organize or reorganize passes on a schedule.
//
// A gocron duration job fires every scan interval, plans a pass with the
// organizer engine, applies it, and records the report in the move journal.
// In organize mode the docking station is also watched with fsnotify so a
// new download triggers an early pass instead of waiting for the next tick.
//
// Key features:
//   - Single-instance lock shared with one-shot commands (gofrs/flock)
//   - Non-overlapping passes (singleton job, late ticks are skipped)
//   - Debounced filesystem triggers
//   - Daemon mode support with PID file management
//   - Graceful shutdown with SIGTERM/SIGINT handling; a pass that is still
//     probing file stability is abandoned, moves are never interrupted
//
// Example usage:
//
//	st, err := store.Open(cfg.DatabasePath())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close()
//
//	w, err := watcher.New(organizer.New(cfg, logger), st, watcher.Options{
//		Mode:     organizer.ModeOrganize,
//		Interval: cfg.ScanInterval(),
//		LockPath: cfg.LockPath(),
//		Inbox:    cfg.DockingStationPath,
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Run in foreground until Ctrl+C
//	if err := w.RunUntilSignal(os.Interrupt); err != nil {
//		log.Fatal(err)
//	}
package watcher
