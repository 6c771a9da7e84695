package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SirVer/giti/internal/config"
	"github.com/SirVer/giti/internal/fix"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
		require.NoError(t, err)
		require.Equal(t, config.DefaultBase, cfg.Base)
		require.Equal(t, fix.DefaultRules, cfg.Rules())
		require.Equal(t, 3, cfg.UpdateRetries())

		owner, repo, err := cfg.UpdateRepo()
		require.NoError(t, err)
		require.Equal(t, "SirVer", owner)
		require.Equal(t, "giti", repo)
	})

	t.Run("reads every key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
base: origin/main
formatter_timeout: 30s
formatters:
  - name: prettier
    patterns: ["*.ts", "web/*.js"]
    command: prettier
    args: ["--write", "{file}"]
    batch: true
update:
  repo: example/g-fork
  timeout: 10s
  retries: 0
log_file: /tmp/g.log
`), 0o600))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.Equal(t, "origin/main", cfg.Base)
		require.Equal(t, 30*time.Second, time.Duration(cfg.FormatterTimeout))
		require.Equal(t, 10*time.Second, time.Duration(cfg.Update.Timeout))
		require.Equal(t, 0, cfg.UpdateRetries())
		require.Equal(t, "/tmp/g.log", cfg.LogFile)

		rules := cfg.Rules()
		require.Len(t, rules, len(fix.DefaultRules)+1)
		require.Equal(t, "prettier", rules[0].Name)
		require.True(t, rules[0].Batch)

		owner, repo, err := cfg.UpdateRepo()
		require.NoError(t, err)
		require.Equal(t, "example", owner)
		require.Equal(t, "g-fork", repo)
	})

	t.Run("empty file yields defaults", func(t *testing.T) {
		cfg, err := config.Parse(nil)
		require.NoError(t, err)
		require.Equal(t, config.Default(), cfg)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		for name, body := range map[string]string{
			"bad duration":     "formatter_timeout: soon\n",
			"unknown key":      "bsae: origin/main\n",
			"rule sans cmd":    "formatters:\n  - patterns: ['*.x']\n",
			"bad repo":         "update:\n  repo: just-a-name\n",
			"negative retries": "update:\n  retries: -1\n",
			"empty base":       "base: ''\n",
		} {
			_, err := config.Parse([]byte(body))
			require.Error(t, err, name)
		}
	})

	t.Run("log file environment wins", func(t *testing.T) {
		t.Setenv("G_LOG_FILE", "/var/log/g.log")
		cfg, err := config.Parse([]byte("log_file: /tmp/g.log\n"))
		require.NoError(t, err)
		require.Equal(t, "/var/log/g.log", cfg.LogFilePath())
	})
}

func TestDir(t *testing.T) {
	t.Run("explicit override", func(t *testing.T) {
		t.Setenv("G_CONFIG_HOME", "/custom/g")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		require.Equal(t, "/custom/g", config.Dir())
		require.Equal(t, filepath.Join("/custom/g", config.FileName), config.Path())
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("G_CONFIG_HOME", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		require.Equal(t, filepath.Join("/xdg", "g"), config.Dir())
	})

	t.Run("home directory fallback", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("uses AppData on windows")
		}
		home := t.TempDir()
		t.Setenv("G_CONFIG_HOME", "")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", home)
		require.Equal(t, filepath.Join(home, ".config", "g"), config.Dir())
	})
}
