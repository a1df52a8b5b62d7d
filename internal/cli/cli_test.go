package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2beens/dailyfit/internal/config"
	"github.com/2beens/dailyfit/internal/tracker"
	"github.com/2beens/dailyfit/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks (stores not closed by commands)
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func executeCommand(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()

	// flag values survive between executions of the same command tree
	flagEnv = "development"
	flagConfigPath = filepath.Join(dataDir, "missing-config.toml")
	flagDataDir = ""
	flagLogLevel = "error"
	historyLimit = 0

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCLI_StatusFresh(t *testing.T) {
	out, err := executeCommand(t, t.TempDir(), "status")
	require.NoError(t, err)

	assert.Contains(t, out, "[ ] 1")
	assert.Contains(t, out, "Push-ups")
	assert.Contains(t, out, "Stretching")
	assert.Contains(t, out, "Today:  0/6 (0%)")
	assert.Contains(t, out, "Streak: 0")
}

func TestCLI_TogglePersistsAcrossRuns(t *testing.T) {
	dataDir := t.TempDir()

	out, err := executeCommand(t, dataDir, "toggle", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] 3")

	out, err = executeCommand(t, dataDir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] 3")
	assert.Contains(t, out, "[ ] 1")
	assert.Contains(t, out, "Today:  1/6 (17%)")

	_, err = executeCommand(t, dataDir, "toggle", "404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `exercise "404" not found`)
}

func TestCLI_CompleteDayThenReset(t *testing.T) {
	dataDir := t.TempDir()

	var out string
	var err error
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		out, err = executeCommand(t, dataDir, "toggle", id)
		require.NoError(t, err)
	}
	assert.Contains(t, out, "All done for today!")
	assert.Contains(t, out, "Streak: 1")

	out, err = executeCommand(t, dataDir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "6/6")
	assert.Contains(t, out, "Streak: 1")

	out, err = executeCommand(t, dataDir, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Today's exercises reset.")
	assert.Contains(t, out, "[ ] 6")
	// reset does not touch the streak
	assert.Contains(t, out, "Streak: 1")

	out, err = executeCommand(t, dataDir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Current streak:      1")
	assert.Contains(t, out, "Completion rate:     100%")
	assert.Contains(t, out, "<- today")
}

func TestCLI_HashToken(t *testing.T) {
	out, err := executeCommand(t, t.TempDir(), "hash-token", "s3cr3t")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, pkg.CheckTokenHash("s3cr3t", hash))
	assert.False(t, pkg.CheckTokenHash("other", hash))
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[development]
storage_backend = "memory"
storage_key = "@cli_test"
`), 0o600))

	flagEnv = "dev"
	flagConfigPath = path
	flagDataDir = ""
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StorageBackendMemory, cfg.StorageBackend)
	assert.Equal(t, "@cli_test", cfg.StorageKey)

	// --data-dir forces the file backend
	flagDataDir = dir
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StorageBackendFile, cfg.StorageBackend)
	assert.Equal(t, dir, cfg.FileStoreDir)
	assert.Equal(t, "@cli_test", cfg.StorageKey)
}

func TestPrintHistory(t *testing.T) {
	state := tracker.State{
		Streak: 2,
		CompletionHistory: []tracker.DailyCompletion{
			{Date: "2024-3-1", Completed: 6, Total: 6},
			{Date: "2024-3-2", Completed: 6, Total: 6},
			{Date: "2024-3-3", Completed: 5, Total: 6},
		},
	}

	buf := new(bytes.Buffer)
	printHistory(buf, state, 2)
	out := buf.String()
	assert.NotContains(t, out, "2024-3-1 ")
	assert.Contains(t, out, "2024-3-2")
	assert.Contains(t, out, "5/6")
	assert.Contains(t, out, "Streak: 2")

	buf.Reset()
	printHistory(buf, tracker.State{}, 0)
	assert.Equal(t, "No completed days yet.\n", buf.String())
}

func TestPrintStats_Week(t *testing.T) {
	state := tracker.State{
		Exercises:         tracker.DefaultCatalog(),
		CompletionHistory: []tracker.DailyCompletion{{Date: "2024-3-4", Completed: 3, Total: 6}},
	}

	buf := new(bytes.Buffer)
	printStats(buf, state, time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC))
	out := buf.String()

	assert.Contains(t, out, "Mon 2024-3-4    50% [#####.....]")
	assert.Contains(t, out, "Wed 2024-3-6     0% [..........]  <- today")
	assert.Contains(t, out, "Strength      4   67%")
}
