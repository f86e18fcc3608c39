package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/trackcore/internal/domain/capability"
	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/domain/rating"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  addr: \":9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5.0, cfg.Player.MinBuffer)
	assert.Equal(t, 10.0, cfg.Player.PlayBuffer)
	assert.Equal(t, 50.0, cfg.Player.MaxBuffer)
	assert.Equal(t, time.Second, cfg.Simulator.Chunk)
	assert.Equal(t, 3*time.Minute, cfg.Simulator.DefaultDuration)
	assert.False(t, cfg.MPRIS.Enabled)
	assert.Equal(t, "trackcore", cfg.MPRIS.Name)
	assert.Equal(t, options.DefaultMetadata(), cfg.MetadataOptions())
}

func TestParse_FullFile(t *testing.T) {
	data := []byte(`
server:
  addr: "127.0.0.1:7070"
  hooks:
    on_started: ["echo started"]
log:
  level: debug
player:
  min_buffer: 1
  play_buffer: 2.5
  max_buffer: 30
  max_cache_size: 1048576
  wait_for_buffer: true
metadata:
  capabilities: [play, pause, skip-to-next, like]
  notification_capabilities: [play, pause]
  compact_capabilities: [play]
  rating_type: 5-stars
  jump_interval: 30
simulator:
  chunk: 500ms
  time_scale: 10
mpris:
  enabled: true
  name: kitchen
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"echo started"}, cfg.Server.Hooks.OnStarted)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2500*time.Millisecond, cfg.Player.PlayBufferDuration())
	assert.Equal(t, int64(1<<20), cfg.Player.MaxCacheSize)
	assert.True(t, cfg.Player.WaitForBuffer)
	assert.Equal(t, 500*time.Millisecond, cfg.Simulator.Chunk)
	assert.Equal(t, 10.0, cfg.Simulator.TimeScale)
	assert.Equal(t, "kitchen", cfg.MPRIS.Name)

	m := cfg.MetadataOptions()
	assert.Equal(t, capability.Set{capability.Play, capability.Pause, capability.SkipToNext, capability.Like}, m.Full)
	assert.Equal(t, capability.Set{capability.Play}, m.Compact)
	assert.Equal(t, rating.FiveStars, m.RatingType)
	assert.Equal(t, 30*time.Second, m.JumpIntervalDuration())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{
			name:   "malformed yaml",
			data:   "server: [",
			errMsg: "failed to parse config file",
		},
		{
			name:   "buffer order",
			data:   "player:\n  min_buffer: 20\n  play_buffer: 10\n",
			errMsg: "MinBuffer",
		},
		{
			name:   "unknown log level",
			data:   "log:\n  level: chatty\n",
			errMsg: "Level",
		},
		{
			name:   "compact not a subset",
			data:   "metadata:\n  capabilities: [play]\n  compact_capabilities: [play, bookmark]\n",
			errMsg: "bookmark",
		},
		{
			name:   "unknown capability",
			data:   "metadata:\n  capabilities: [play, rewind]\n",
			errMsg: "rewind",
		},
		{
			name:   "zero simulator speed",
			data:   "simulator:\n  fetch_speed: -1\n",
			errMsg: "FetchSpeed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg,
				"error message should mention the problematic field")
		})
	}
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("TRACKCORE_ADDR", ":1234")
	t.Setenv("TRACKCORE_LOG_LEVEL", "warn")
	t.Setenv("TRACKCORE_MPRIS", "true")

	cfg, err := Parse([]byte("server:\n  addr: \":9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.MPRIS.Enabled)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("player:\n  wait_for_buffer: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Player.WaitForBuffer)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
