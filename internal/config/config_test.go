package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_BOT_TOKEN", "123:abc")

	raw := `
telegram:
  bot_token: ${TEST_BOT_TOKEN}
admin:
  chat_id: "-100200300"
storage:
  data_file: ` + filepath.Join(dir, "data", "booking_data.json") + `
  log_file: ` + filepath.Join(dir, "data", "booking_logs.json") + `
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "-100200300", cfg.Admin.ChatID)
	assert.Equal(t, 20, cfg.RateLimit.PerUserPerMinute)
	assert.Equal(t, 5, cfg.RateLimit.Burst)

	// Storage directory is created on load.
	_, statErr := os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, statErr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
