package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "empty_config",
			config:  Config{},
			wantErr: "",
		},
		{
			name: "incomplete server certificate configuration",
			config: Config{
				ServerKey: "key.pem",
			},
			wantErr: "incomplete server certificate configuration",
		},
		{
			name: "no server CAs configured",
			config: Config{
				ServerKey:  "cert.key",
				ServerCert: "cert.pem",
			},
			wantErr: "no server CAs configured",
		},
		{
			name: "server skip verify needs no CAs",
			config: Config{
				ServerKey:        "cert.key",
				ServerCert:       "cert.pem",
				ServerSkipVerify: true,
			},
			wantErr: "",
		},
		{
			name: "incomplete client certificate configuration",
			config: Config{
				ClientKey: "key.pem",
			},
			wantErr: "incomplete client certificate configuration",
		},
		{
			name: "no client CAs configured",
			config: Config{
				ClientKey:  "cert.key",
				ClientCert: "cert.pem",
			},
			wantErr: "no client CAs configured",
		},
		{
			name: "client skip verify needs no CAs",
			config: Config{
				ClientKey:        "cert.key",
				ClientCert:       "cert.pem",
				ClientSkipVerify: true,
			},
			wantErr: "",
		},
		{
			name: "complete mutual tls",
			config: Config{
				ServerKey:  "cert.key",
				ServerCert: "cert.pem",
				ServerCAs:  []string{"ca.pem"},
				ClientKey:  "cert.key",
				ClientCert: "cert.pem",
				ClientCAs:  []string{"ca.pem"},
			},
			wantErr: "",
		},
		{
			name: "negative pool capacity",
			config: Config{
				MaxConns: -1,
			},
			wantErr: "negative connection pool capacity",
		},
		{
			name: "idle cap above total cap",
			config: Config{
				MaxConns:     2,
				MaxIdleConns: 5,
			},
			wantErr: "idle connection cap exceeds total connection cap",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, uint32(maxFrameSize), cfg.frameLimit())
	assert.Equal(t, poolMaxIdle, cfg.maxIdle())
	assert.Equal(t, poolMaxCap, cfg.maxCap())

	cfg = &Config{MaxFrameSize: 1024, MaxIdleConns: 1, MaxConns: 2, ConnectTimeout: 1}
	assert.Equal(t, uint32(1024), cfg.frameLimit())
	assert.Equal(t, 1, cfg.maxIdle())
	assert.Equal(t, 2, cfg.maxCap())
}
