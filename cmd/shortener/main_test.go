package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolboxtech/qr-utility/internal/buildinfo"
)

func TestRunStorageError(t *testing.T) {
	err := run(context.Background(), "shortener", []string{"-f", t.TempDir()}, buildinfo.DefaultInfo())
	assert.Error(t, err)
}

func TestRunServesUntilCanceled(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	storagePath := filepath.Join(t.TempDir(), "links.jsonl")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, "shortener", []string{"-r", addr, "-f", storagePath, "-log", "error"}, buildinfo.DefaultInfo())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post("http://"+addr+"/api/shorten", "application/json",
		strings.NewReader(`{"target_url":"https://example.com"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("run did not return")
	}
}
