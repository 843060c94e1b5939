package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// testEnv points docksort at temp directories through the environment.
type testEnv struct {
	inbox     string
	organized string
	stateDir  string
}

// setupTestEnv isolates config loading from the user's machine and resets
// package-level flag variables.
func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	root := t.TempDir()
	env := testEnv{
		inbox:     filepath.Join(root, "DockingStation"),
		organized: filepath.Join(root, "Organized"),
		stateDir:  filepath.Join(root, "state"),
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("NO_COLOR", "1")
	t.Setenv("DOCKSORT_DOCKING_STATION_PATH", env.inbox)
	t.Setenv("DOCKSORT_ORGANIZED_PATH", env.organized)
	t.Setenv("DOCKSORT_STATE_DIR", env.stateDir)
	t.Setenv("DOCKSORT_STABILITY_WAIT_TIME_SECONDS", "0")

	resetFlags()
	t.Cleanup(resetFlags)
	return env
}

func resetFlags() {
	configFile = ""
	logLevel = ""
	organizeDryRun = false
	reorganizeDryRun = false
	watchMode = "organize"
	watchDaemon = false
	watchDaemonChild = false
	watchPIDFile = ""
	watchLogFile = ""
	watchStop = false
	historyLimit = 20
	historyFailed = false
	historyPasses = false
}

// newTestCmd returns a command whose output is captured in the buffer.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	return cmd, buf
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// findMoved returns the paths matching pattern below the organized root.
func findMoved(t *testing.T, env testEnv, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(env.organized, pattern))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}
