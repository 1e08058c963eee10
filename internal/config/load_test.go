package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir runs the test from an empty directory so a developer's local
// config.yaml cannot leak into assertions.
func chdir(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "lexiq.db", cfg.Database.DSN)
	assert.Equal(t, 10, cfg.Study.NewWordsLimit)
	assert.Equal(t, 100, cfg.Study.ReviewLimit)
	assert.InDelta(t, 0.9, cfg.SRS.DesiredRetention, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Audio.RevealDelay)
	assert.Equal(t, 800*time.Millisecond, cfg.Audio.WordSentencePause)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t)

	t.Setenv("LEXIQ_APP_LOG_LEVEL", "debug")
	t.Setenv("LEXIQ_DATABASE_DRIVER", "postgres")
	t.Setenv("LEXIQ_DATABASE_DSN", "postgres://localhost:5432/lexiq")
	t.Setenv("LEXIQ_STUDY_NEW_WORDS_LIMIT", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost:5432/lexiq", cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Study.NewWordsLimit)
}

func TestLoadConfigFile(t *testing.T) {
	chdir(t)

	yaml := `
app:
  log_level: warn
study:
  new_words_limit: 5
audio:
  auto: true
  reveal_delay: 1s
`
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, 5, cfg.Study.NewWordsLimit)
	assert.True(t, cfg.Audio.Auto)
	assert.Equal(t, time.Second, cfg.Audio.RevealDelay)
	// Values the file does not set keep their defaults.
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadValidation(t *testing.T) {
	t.Run("unknown log level is rejected", func(t *testing.T) {
		chdir(t)
		t.Setenv("LEXIQ_APP_LOG_LEVEL", "verbose")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "App.LogLevel")
	})

	t.Run("unknown driver is rejected", func(t *testing.T) {
		chdir(t)
		t.Setenv("LEXIQ_DATABASE_DRIVER", "oracle")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Database.Driver")
	})

	t.Run("out-of-range retention is rejected", func(t *testing.T) {
		chdir(t)
		t.Setenv("LEXIQ_SRS_DESIRED_RETENTION", "1.5")

		_, err := Load()
		assert.Error(t, err)
	})
}
