package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toolboxtech/qr-utility/internal/config"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestHTTPServer_RunAndShutdown(t *testing.T) {
	addr := freeAddr(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := NewHTTPServer(addr, h, config.Default(), zap.NewNop())
	assert.Equal(t, addr, srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/", addr))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusTeapot
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("server did not stop")
	}
}

func TestHTTPServer_StartError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	srv := NewHTTPServer(l.Addr().String(), http.NotFoundHandler(), config.Default(), zap.NewNop())
	assert.Error(t, srv.Run(context.Background()), "address already in use")
}

func TestInitLogger(t *testing.T) {
	logger, cleanup, err := InitLogger("debug")
	require.NoError(t, err)
	defer cleanup()
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, cleanup, err = InitLogger("warn")
	require.NoError(t, err)
	defer cleanup()
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, _, err = InitLogger("loud")
	assert.Error(t, err)
}
