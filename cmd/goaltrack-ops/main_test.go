package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goaltrack/internal/dates"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedDir writes a quit goal last checked lastCheck into a fresh data dir.
func seedDir(t *testing.T, lastCheck dates.ISODate) string {
	t.Helper()
	dir := t.TempDir()
	goals := fmt.Sprintf(`[{"id":"q1","type":"quit","title":"Soda","streak":{"current":1,"highest":1,"lastCheck":%q}}]`, lastCheck)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goals.json"), []byte(goals), 0o644))
	return dir
}

func TestRolloverCommand(t *testing.T) {
	today := dates.Of(time.Now())
	dir := seedDir(t, dates.AddDays(today, -3))
	target := dates.AddDays(today, 1)

	_, err := run(t, "rollover", "--driver", "file", "--data-dir", dir, "--date", string(dates.AddDays(today, -2)))
	require.Error(t, err, "past days are refused")

	out, err := run(t, "rollover", "--driver", "file", "--data-dir", dir, "--date", string(target))
	require.NoError(t, err, out)

	var rep struct {
		Day          string   `json:"day"`
		QuitAdvanced []string `json:"quitAdvanced"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, string(target), rep.Day)
	assert.Equal(t, []string{"q1"}, rep.QuitAdvanced)

	b, err := os.ReadFile(filepath.Join(dir, "goals.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"lastCheck":"`+string(target)+`"`)

	_, err = run(t, "rollover", "--driver", "file", "--data-dir", dir, "--date", "someday")
	assert.Error(t, err)
}

func TestExportImportDrill(t *testing.T) {
	src := seedDir(t, "2024-01-01")
	archive := filepath.Join(t.TempDir(), "out", "backup.tar.gz")

	out, err := run(t, "export", "--driver", "file", "--data-dir", src, "--out", archive)
	require.NoError(t, err, out)
	assert.Contains(t, out, archive)

	dst := t.TempDir()
	_, err = run(t, "import", "--driver", "sqlite", "--data-dir", dst, "--archive", archive)
	require.NoError(t, err)

	srcDrill, err := run(t, "drill", "--driver", "file", "--data-dir", src)
	require.NoError(t, err)
	dstDrill, err := run(t, "drill", "--driver", "sqlite", "--data-dir", dst)
	require.NoError(t, err)
	assert.Equal(t, digestLine(srcDrill), digestLine(dstDrill))
	assert.NotEmpty(t, digestLine(srcDrill))

	_, err = run(t, "import", "--driver", "file", "--data-dir", dst)
	assert.Error(t, err)
}

func digestLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "digest: ") {
			return strings.TrimPrefix(line, "digest: ")
		}
	}
	return ""
}
