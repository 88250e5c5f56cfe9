package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-d", "/tmp/kb.db", "-b", "s3", "-g", "g1", "-p", "90s", "-e", "hash", "-l", "debug", "-log-file", "/tmp/kb.log", "-auto-sync=false"},
			expected: &Config{
				DatabasePath: "/tmp/kb.db", Backend: "s3", GistID: "g1", PollInterval: 90 * time.Second,
				Equality: "hash", LogLevel: "debug", LogFile: "/tmp/kb.log", AutoSync: false,
			},
		},
		{
			name:     "unknown flags are ignored",
			args:     []string{"cmd", "-x", "1", "-g", "g2"},
			expected: &Config{GistID: "g2"},
		},
		{name: "bad duration", args: []string{"cmd", "-p", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsUnsetValues(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-e", "hash"}

	var cfg Config
	cfg.LoadDefaults()
	parseFlags(&cfg)

	assert.Equal(t, "hash", cfg.Equality)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.True(t, cfg.AutoSync)
}
