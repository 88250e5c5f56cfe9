package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	clientFlags := []string{"-d", "-b", "-g", "-p", "-auto-sync"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "keeps own flags and drops the rest",
			args: []string{"-c", "kb.json", "-d", "/var/kb.db", "-x", "1"},
			want: []string{"-d", "/var/kb.db"},
		},
		{
			name: "equals form",
			args: []string{"-p=10m", "--verbose=true"},
			want: []string{"-p=10m"},
		},
		{
			name: "order is preserved",
			args: []string{"-g", "abc123", "-b", "gist", "-p", "5m"},
			want: []string{"-g", "abc123", "-b", "gist", "-p", "5m"},
		},
		{
			name: "boolean flag before another flag takes no value",
			args: []string{"-auto-sync", "-d", "kb.db"},
			want: []string{"-auto-sync", "-d", "kb.db"},
		},
		{
			name: "flag without value at end is kept",
			args: []string{"-g"},
			want: []string{"-g"},
		},
		{
			name: "value that starts with a dash needs the equals form",
			args: []string{"-d", "-weird.db", "-d=-weird.db"},
			want: []string{"-d", "-d=-weird.db"},
		},
		{
			name: "positional arguments are ignored",
			args: []string{"sync", "now"},
			want: []string{},
		},
		{
			name: "repeated flag is kept twice",
			args: []string{"-b", "s3", "-b", "gist"},
			want: []string{"-b", "s3", "-b", "gist"},
		},
		{
			name: "empty",
			args: nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, clientFlags))
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		assert.Equal(t, "/path/short.json", ConfigPath([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with value", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		assert.Equal(t, "/path/long.json", ConfigPath([]string{"-config", "/path/long.json"}))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		assert.Empty(t, ConfigPath([]string{"-x", "1", "-y", "2"}))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		assert.Equal(t, "/path/2.json", ConfigPath([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(ConfigEnv, "/etc/gistkeeper.json")
		assert.Equal(t, "/etc/gistkeeper.json", ConfigPath(nil))
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv(ConfigEnv, "/etc/gistkeeper.json")
		assert.Equal(t, "local.json", ConfigPath([]string{"-c", "local.json"}))
	})
}
