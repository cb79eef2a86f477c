package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/store"
	"github.com/zalando/go-keyring"
)

type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time { return m.CurrentTime }

// 2025-05-15 is 2082-02-01 BS.
var fixedClock = MockClock{CurrentTime: time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)}

// testConfig writes a config file into a temp dir and redirects the log file.
func testConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	path := filepath.Join(dir, config.ConfigFileName)
	if yaml != "" {
		require.NoError(t, os.WriteFile(path, []byte(yaml), config.FilePermUserRW))
	}
	return path
}

func execute(t *testing.T, cfgPath string, stdin string, args ...string) (string, error) {
	t.Helper()
	root, closer := newRootCmd(fixedClock)
	defer closer()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--" + config.FlagConfig, cfgPath}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, testConfig(t, ""), "", config.CmdVersion)
	require.NoError(t, err)
	assert.Contains(t, out, config.AppName+" version "+config.Version)
}

func TestDefaultConfigIsCreated(t *testing.T) {
	path := testConfig(t, "")
	_, err := execute(t, path, "", "note", "list")
	require.NoError(t, err)

	cfg, created, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, config.DefaultListen, cfg.Listen)
	assert.FileExists(t, path)
}

func TestNoteLifecycle(t *testing.T) {
	path := testConfig(t, "")

	out, err := execute(t, path, "", "note", "add", "2082-02-05", "Buy", "marigolds")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 2)
	id := fields[0]
	assert.Equal(t, "2082-02-05", fields[1])

	out, err = execute(t, path, "", "note", "list", "2082-02-05")
	require.NoError(t, err)
	assert.Equal(t, id+"\tBuy marigolds\n", out)

	out, err = execute(t, path, "", "note", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Notes this month")
	assert.Contains(t, out, "2082-02-05\t1 note")

	out, err = execute(t, path, "", "note", "rm", "2082-02-05", id)
	require.NoError(t, err)
	assert.Equal(t, "Deleted 1 note(s)\n", out)

	out, err = execute(t, path, "", "note", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No notes this month")
}

func TestNoteRemoveAll(t *testing.T) {
	path := testConfig(t, "")
	for _, text := range []string{"one", "two"} {
		_, err := execute(t, path, "", "note", "add", "2082-02-05", text)
		require.NoError(t, err)
	}

	out, err := execute(t, path, "", "note", "rm", "2082-02-05")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 2 note(s)\n", out)
}

func TestNoteErrors(t *testing.T) {
	path := testConfig(t, "")

	_, err := execute(t, path, "", "note", "add", "2100-01-01", "too late")
	var rangeErr *bs.DateRangeError
	assert.ErrorAs(t, err, &rangeErr)

	_, err = execute(t, path, "", "note", "add", "tomorrow", "x")
	assert.Error(t, err)

	_, err = execute(t, path, "", "note", "add", "2082-02-05")
	assert.Error(t, err, "text is required")

	_, err = execute(t, path, "", "note", "rm", "2082-02-05", "missing")
	assert.Error(t, err)
}

func TestMonth(t *testing.T) {
	path := testConfig(t, "")
	_, err := execute(t, path, "", "note", "add", "2082-02-05", "Buy marigolds")
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"today", nil, []string{"Jestha 2082", "1 note"}},
		{"offset forward", []string{"--offset", "1"}, []string{"Ashadh 2082"}},
		{"offset backward", []string{"--offset", "-2"}, []string{"Chaitra 2081"}},
		{"date", []string{"--date", "2025-04-14"}, []string{"Baishakh 2082", "Apr 14 - May 14, 2025"}},
		{"language", []string{"--lang", "ne"}, []string{"जेठ", "२०८२"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, path, "", append([]string{config.CmdMonth}, tt.args...)...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

// TestMonth_StorageWarning shows the warning only once the store is nearly
// full.
func TestMonth_StorageWarning(t *testing.T) {
	path := testConfig(t, "")
	warning := "Storage is"

	out, err := execute(t, path, "", config.CmdMonth)
	require.NoError(t, err)
	assert.NotContains(t, out, warning)

	_, err = execute(t, path, "", "note", "add", "2082-02-05", strings.Repeat("x", 200))
	require.NoError(t, err)
	out, err = execute(t, path, "", config.CmdMonth)
	require.NoError(t, err)
	assert.NotContains(t, out, warning)

	st, err := store.Open(filepath.Join(filepath.Dir(path), config.DefaultDataDirName, config.StoreFileName))
	require.NoError(t, err)
	used := st.Estimate().Used
	require.NotZero(t, used)

	// Roughly 90% of the configured quota.
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("storage_quota: %d\n", used*10/9)), config.FilePermUserRW))
	out, err = execute(t, path, "", config.CmdMonth)
	require.NoError(t, err)
	assert.Contains(t, out, warning)
}

// TestMonth_SpilloverDecorations marks notes on the days the grid borrows
// from the previous month.
func TestMonth_SpilloverDecorations(t *testing.T) {
	path := testConfig(t, "")

	// Jestha 2082 starts on a Thursday: 2082-01-28..31 lead the grid.
	_, err := execute(t, path, "", "note", "add", "2082-01-30", "end of Baishakh")
	require.NoError(t, err)

	out, err := execute(t, path, "", config.CmdMonth)
	require.NoError(t, err)
	assert.Contains(t, out, "Jestha 2082")
	assert.Contains(t, out, "30•")
	assert.NotContains(t, out, "1 note", "spillover days stay out of the legend")
}

func TestMonth_OutOfRange(t *testing.T) {
	path := testConfig(t, "")

	_, err := execute(t, path, "", config.CmdMonth, "--date", "1900-01-01")
	var rangeErr *bs.DateRangeError
	assert.ErrorAs(t, err, &rangeErr)

	_, err = execute(t, path, "", config.CmdMonth, "--offset", "500")
	assert.ErrorAs(t, err, &rangeErr)
}

func TestHolidaysLoadAndList(t *testing.T) {
	path := testConfig(t, "")
	file := filepath.Join(t.TempDir(), "holidays.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"2082": [
			{"name": "New Year", "date": "2082-01-01"},
			{"name": "Test Day", "date": "2082-02-10"}
		],
		"2083": [{"name": "New Year", "date": "2083-01-01"}]
	}`), config.FilePermUserRW))

	out, err := execute(t, path, "", "holidays", "load", file)
	require.NoError(t, err)
	assert.Equal(t, "Holidays stored: 3 across 2 year(s)\n", out)

	out, err = execute(t, path, "", "holidays", "list")
	require.NoError(t, err)
	assert.Equal(t, "2082-01-01\tNew Year\n2082-02-10\tTest Day\n", out)

	out, err = execute(t, path, "", "holidays", "list", "2083")
	require.NoError(t, err)
	assert.Equal(t, "2083-01-01\tNew Year\n", out)

	out, err = execute(t, path, "", config.CmdMonth)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Day")
}

func TestHolidaysRefreshWithoutSource(t *testing.T) {
	_, err := execute(t, testConfig(t, ""), "", "holidays", "refresh")
	assert.ErrorContains(t, err, config.ErrHolidaySource)
}

func TestHolidaysPassword(t *testing.T) {
	keyring.MockInit()
	path := testConfig(t, "holidays:\n  url: https://example.com/holidays.json\n  user: alice\n")

	out, err := execute(t, path, "s3cret\n", "holidays", "password")
	require.NoError(t, err)
	assert.Equal(t, "Password stored for alice\n", out)

	got, err := keyring.Get(config.KeyringService, "alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	out, err = execute(t, path, "", "holidays", "password", "--"+config.FlagDelete)
	require.NoError(t, err)
	assert.Equal(t, "Password removed for alice\n", out)

	_, err = keyring.Get(config.KeyringService, "alice")
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestRunMain_ExitCodes(t *testing.T) {
	path := testConfig(t, "")
	var out, errOut bytes.Buffer

	code := runMain([]string{"--" + config.FlagConfig, path, config.CmdVersion}, &out, &errOut)
	assert.Equal(t, config.ExitCodeSuccess, code)

	code = runMain([]string{"--" + config.FlagConfig, path, "note", "add", "2100-01-01", "x"}, &out, &errOut)
	assert.Equal(t, config.ExitCodeError, code)
	assert.Contains(t, errOut.String(), "Error:")
}
