package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultTCPAddress, cfg.Server.Listen.TCP)
	assert.Equal(t, uint(10), cfg.Server.BlockTimeout)
	assert.Equal(t, 1024, cfg.Server.QueueCapacity)
	assert.Equal(t, "tcp://"+DefaultTCPAddress, cfg.ClientTarget())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voltron.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
blockTimeout = 30
queueCapacity = 16

[server.listen]
tcp = "0.0.0.0:4000"
domain = "~/.voltron/sock"

[view]
apiUrl = "tcp://10.0.0.5:4000"
backoff = 2

[logging]
level = "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Listen.TCP)
	assert.Equal(t, uint(30), cfg.Server.BlockTimeout)
	assert.Equal(t, 16, cfg.Server.QueueCapacity)
	assert.Equal(t, uint(2), cfg.View.Backoff)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "tcp://10.0.0.5:4000", cfg.ClientTarget())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".voltron/sock"), cfg.Server.Listen.Domain)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad_toml",
			content: `server = [`,
			wantErr: "parse config",
		},
		{
			name: "bad_tcp_address",
			content: `
[server.listen]
tcp = "localhost"
`,
			wantErr: "host:port",
		},
		{
			name: "negative_queue",
			content: `
[server]
queueCapacity = -1
`,
			wantErr: "queueCapacity",
		},
		{
			name: "incomplete_tls",
			content: `
[transport]
server_key = "key.pem"
`,
			wantErr: "incomplete server certificate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "voltron.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClientTarget_Precedence(t *testing.T) {
	cfg := Default()
	cfg.Server.Listen.TCP = ""
	cfg.Server.Listen.Domain = "/tmp/v.sock"
	assert.Equal(t, "unix:///tmp/v.sock", cfg.ClientTarget())

	cfg.Server.Listen.TCP = "127.0.0.1:9999"
	assert.Equal(t, "tcp://127.0.0.1:9999", cfg.ClientTarget())

	cfg.View.APIURL = "tcp://10.1.1.1:22"
	assert.Equal(t, "tcp://10.1.1.1:22", cfg.ClientTarget())
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), ExpandUser("~/x"))
	assert.Equal(t, home, ExpandUser("~"))
	assert.Equal(t, "/abs/path", ExpandUser("/abs/path"))
	assert.Equal(t, "unix://"+filepath.Join(home, "sock"), ExpandUser("unix://~/sock"))
}
