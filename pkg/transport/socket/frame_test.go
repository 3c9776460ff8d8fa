package socket

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	payload := []byte(`{"type":"request","request":"version"}`)

	require.NoError(t, writeFrame(buf, payload, maxFrameSize))
	got, err := readFrame(buf, maxFrameSize)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrame_ZeroLengthIsLegal(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, writeFrame(buf, nil, maxFrameSize))
	got, err := readFrame(buf, maxFrameSize)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFrame_RejectsOversize(t *testing.T) {
	buf := &bytes.Buffer{}
	payload := []byte(strings.Repeat("x", 32))

	assert.Error(t, writeFrame(buf, payload, 16))

	require.NoError(t, writeFrame(buf, payload, maxFrameSize))
	_, err := readFrame(buf, 16)
	assert.ErrorContains(t, err, "exceeds limit")
}

func TestFrame_TruncatedPayload(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeFrame(buf, []byte("hello"), maxFrameSize))

	truncated := bytes.NewReader(buf.Bytes()[:6])
	_, err := readFrame(truncated, maxFrameSize)
	assert.Error(t, err)
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		target      string
		wantNetwork string
		wantAddress string
		wantErr     bool
	}{
		{target: "tcp://127.0.0.1:22222", wantNetwork: "tcp", wantAddress: "127.0.0.1:22222"},
		{target: "unix:///tmp/v.sock", wantNetwork: "unix", wantAddress: "/tmp/v.sock"},
		{target: "127.0.0.1:22222", wantNetwork: "tcp", wantAddress: "127.0.0.1:22222"},
		{target: "http://x", wantErr: true},
		{target: "tcp://", wantErr: true},
		{target: "unix://", wantErr: true},
		{target: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			network, address, err := splitAddress(tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNetwork, network)
			assert.Equal(t, tt.wantAddress, address)
		})
	}
}
