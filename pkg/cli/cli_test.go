package cli

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/services"
)

const fastConfig = `[processor]
min_stage_delay_ms = 0
max_stage_delay_ms = 1
`

// execute runs the root command against an isolated config and log file.
func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--config", configPath,
		"--log-file", filepath.Join(filepath.Dir(configPath), "cli.log"),
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, path, "validate", "https://github.com/someone", "https://www.imdb.com/name/nm0000001")
	require.NoError(t, err)
	assert.Contains(t, out, "GitHub")
	assert.Contains(t, out, "IMDB")

	// the default config is written on first use
	assert.FileExists(t, path)

	out, err = execute(t, path, "validate", "https://github.com/someone", "ftp://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 URL(s) invalid")
	assert.Contains(t, out, "✗")
}

func TestConfigSetAndShow(t *testing.T) {
	path := writeConfig(t, fastConfig)

	out, err := execute(t, path, "config", "set", "batch.max_concurrent=6")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration updated successfully")

	out, err = execute(t, path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_concurrent = 6")

	out, err = execute(t, path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))

	_, err = execute(t, path, "config", "set", "batch.max_concurrent")
	assert.Error(t, err)
	_, err = execute(t, path, "config", "set", "nope.key=1")
	assert.Error(t, err)
}

func TestRunCommand_CSV(t *testing.T) {
	path := writeConfig(t, fastConfig)

	out, err := execute(t, path, "run",
		"--success-prob", "1",
		"--seed", "9",
		"--format", "csv",
		"--quiet",
		"https://www.linkedin.com/in/someone",
		"https://github.com/someone",
	)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"URL", "Status", "Name", "JobTitle", "Company", "Confidence"}, rows[0])
	assert.Equal(t, "https://www.linkedin.com/in/someone", rows[1][0])
	assert.Equal(t, "Success", rows[1][1])
	assert.Equal(t, "Success", rows[2][1])
}

func TestRunCommand_FileToOutput(t *testing.T) {
	path := writeConfig(t, fastConfig)
	dir := filepath.Dir(path)

	list := filepath.Join(dir, "urls.txt")
	require.NoError(t, os.WriteFile(list, []byte("https://github.com/a\n# comment\nnot a url\n"), 0644))
	outFile := filepath.Join(dir, "out.json")

	out, err := execute(t, path, "run",
		"--file", list,
		"--success-prob", "1",
		"--seed", "3",
		"--format", "json",
		"--output", outFile,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "[1/2]")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"success_count": 1`)
	assert.Contains(t, string(data), `"error_count": 1`)
	assert.Contains(t, string(data), "https://github.com/a")
}

func TestRunCommand_Errors(t *testing.T) {
	path := writeConfig(t, fastConfig)

	_, err := execute(t, path, "run")
	assert.ErrorContains(t, err, "no URLs given")

	_, err = execute(t, path, "run", "--format", "xml", "https://github.com/a")
	assert.Error(t, err)

	_, err = execute(t, path, "run", "--success-prob", "2", "https://github.com/a")
	assert.ErrorContains(t, err, "invalid run settings")

	_, err = execute(t, path, "run", "--mode", "sideways", "https://github.com/a")
	assert.ErrorIs(t, err, services.ErrInvalidMode)
}

func TestResolveMode(t *testing.T) {
	limits := services.Limits{Interactive: 5, Bulk: 1000}

	mode, err := resolveMode("", false, 3, limits)
	require.NoError(t, err)
	assert.Equal(t, models.ModeInteractive, mode)

	mode, err = resolveMode("", false, 6, limits)
	require.NoError(t, err)
	assert.Equal(t, models.ModeBulk, mode)

	mode, err = resolveMode("", true, 1, limits)
	require.NoError(t, err)
	assert.Equal(t, models.ModeBulk, mode)

	mode, err = resolveMode("interactive", true, 1, limits)
	require.NoError(t, err)
	assert.Equal(t, models.ModeInteractive, mode)
}
