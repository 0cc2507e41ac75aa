package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/emlbox/filter"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{Use: "test"}
	RegisterPersistentFlags(cmd)
	RegisterConversionFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "emlbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(newCommand(t))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.ProgressEnabled())
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, err := LoadConfig(newCommand(t,
		"--log-level", "WARNING",
		"--log-dir", "logs/",
		"--overwrite",
		"--no-progress",
		"--exclude-header", "spam",
		"--exclude-header", "junk",
	))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.True(t, cfg.Overwrite)
	assert.False(t, cfg.ProgressEnabled())
	assert.Equal(t, []string{"spam", "junk"}, cfg.Filter.ExcludeHeader)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("EMLBOX_TEST_LOGS", "/var/log/emlbox")
	path := writeFile(t, `
log_level: debug
log_dir: ${EMLBOX_TEST_LOGS}
overwrite: true
filter:
  include_header:
    - "^From: .*@example\\.com"
`)

	cfg, err := LoadConfig(newCommand(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, Config{
		LogLevel:  "debug",
		LogDir:    "/var/log/emlbox",
		Overwrite: true,
		Filter: filter.Options{
			IncludeHeader: []string{`^From: .*@example\.com`},
		},
	}, cfg)
	assert.False(t, cfg.ProgressEnabled(), "progress only shows at info level")
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "log_level: debug\noverwrite: true\n")

	cfg, err := LoadConfig(newCommand(t, "--config", path, "--log-level", "error", "--overwrite=false"))
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.False(t, cfg.Overwrite)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		want string
	}{
		{
			name: "invalid log level",
			args: func(*testing.T) []string { return []string{"--log-level", "verbose"} },
			want: "invalid --log-level",
		},
		{
			name: "mixed filters",
			args: func(*testing.T) []string {
				return []string{"--include-body", "a", "--exclude-body", "b"}
			},
			want: filter.ErrModeConflict.Error(),
		},
		{
			name: "missing file",
			args: func(t *testing.T) []string {
				return []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}
			},
			want: "does not exist",
		},
		{
			name: "malformed file",
			args: func(t *testing.T) []string {
				return []string{"--config", writeFile(t, "log_level: [unterminated")}
			},
			want: "parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(newCommand(t, tt.args(t)...))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
