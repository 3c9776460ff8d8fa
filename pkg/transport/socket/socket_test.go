package socket

import (
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simp1er/voltron/pkg/model"
)

func echoHandler(payload []byte) []byte {
	return payload
}

func startListener(t *testing.T, target string, handler model.RequestHandler) *Listener {
	t.Helper()
	l, err := NewListener(slog.Default())
	require.NoError(t, err)
	require.NoError(t, l.Start(target, handler, &Config{}))
	t.Cleanup(func() { _ = l.Stop() })
	return l
}

func newTestDialer(t *testing.T) *Dialer {
	t.Helper()
	d, err := NewDialer(&Config{ConnectTimeout: 2}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestRoundTrip_TCP(t *testing.T) {
	l := startListener(t, "tcp://127.0.0.1:0", echoHandler)
	target := TCPTarget(l.Addr().String())
	d := newTestDialer(t)

	got, err := d.Send(target, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), got)
}

func TestRoundTrip_Unix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.sock")
	startListener(t, UnixTarget(path), echoHandler)
	d := newTestDialer(t)

	got, err := d.Send(UnixTarget(path), []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), got)
}

func TestSend_ConcurrentRequests(t *testing.T) {
	l := startListener(t, "tcp://127.0.0.1:0", echoHandler)
	target := TCPTarget(l.Addr().String())
	d := newTestDialer(t)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := []byte(fmt.Sprintf("req-%d", i))
			got, err := d.Send(target, payload)
			if err == nil && string(got) != string(payload) {
				err = fmt.Errorf("got %q want %q", got, payload)
			}
			errs[i] = err
		}()
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
}

func TestSend_ReusesConnections(t *testing.T) {
	// hand-rolled frame server so we can count accepted connections
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	var accepted atomic.Int32
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			go func() {
				defer conn.Close()
				for {
					payload, err := readFrame(conn, maxFrameSize)
					if err != nil {
						return
					}
					if err := writeFrame(conn, payload, maxFrameSize); err != nil {
						return
					}
				}
			}()
		}
	}()

	d := newTestDialer(t)
	target := TCPTarget(ln.Addr().String())
	for i := 0; i < 5; i++ {
		_, err := d.Send(target, []byte("ping"))
		require.NoError(t, err)
	}

	// sequential sends ride the same pooled connection
	assert.Equal(t, int32(1), accepted.Load())
}

func TestSend_FailuresAreTransportErrors(t *testing.T) {
	d := newTestDialer(t)

	_, err := d.Send("tcp://127.0.0.1:1", []byte("ping"))
	require.Error(t, err)

	var transportErr *model.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "dial", transportErr.Op)
	assert.Equal(t, "tcp://127.0.0.1:1", transportErr.Target)
}

func TestSend_EmptyResponseFrame(t *testing.T) {
	l := startListener(t, "tcp://127.0.0.1:0", func([]byte) []byte { return nil })
	d := newTestDialer(t)

	got, err := d.Send(TCPTarget(l.Addr().String()), []byte("ping"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListener_StopUnblocksIdleConnections(t *testing.T) {
	l := startListener(t, "tcp://127.0.0.1:0", echoHandler)

	// park a raw connection in the server's read loop
	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = l.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not sever the idle connection")
	}

	// repeated Stop is a no-op
	assert.NoError(t, l.Stop())
}

func TestListener_StaleUnixSocketFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.sock")
	first := startListener(t, UnixTarget(path), echoHandler)

	// binding over a live socket file must fail; the broker removes stale
	// files before rebinding
	second, err := NewListener(slog.Default())
	require.NoError(t, err)
	assert.Error(t, second.Start(UnixTarget(path), echoHandler, &Config{}))

	require.NoError(t, first.Stop())
}

func TestListener_StartValidation(t *testing.T) {
	l, err := NewListener(slog.Default())
	require.NoError(t, err)

	assert.Error(t, l.Start("tcp://127.0.0.1:0", nil, &Config{}), "nil handler")
	assert.Error(t, l.Start("tcp://127.0.0.1:0", echoHandler, nil), "wrong config type")
	assert.Error(t, l.Start("http://x", echoHandler, &Config{}), "bad scheme")

	_, err = NewListener(nil)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	type target struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}

	raw := map[string]any{
		"name":  []uint8("voltron"),
		"count": 3,
		"tags":  []any{"a", "b"},
	}
	got := &target{}
	require.NoError(t, Decode(raw, got))
	assert.Equal(t, &target{Name: "voltron", Count: 3, Tags: []string{"a", "b"}}, got)

	assert.ErrorIs(t, Decode(raw, target{}), ErrNotPointer)
	var nilTarget *target
	assert.ErrorIs(t, Decode(raw, nilTarget), ErrNotPointer)
}
