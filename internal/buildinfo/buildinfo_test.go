package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewInfo(t *testing.T) {
	tests := []struct {
		name                  string
		version, date, commit string
		want                  Info
	}{
		{name: "all set", version: "v1.0.0", date: "2024-01-01", commit: "abc123",
			want: Info{Version: "v1.0.0", Date: "2024-01-01", Commit: "abc123"}},
		{name: "empty", want: Info{Version: "N/A", Date: "N/A", Commit: "N/A"}},
		{name: "partial", version: "v2", want: Info{Version: "v2", Date: "N/A", Commit: "N/A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *NewInfo(tt.version, tt.date, tt.commit))
		})
	}
	assert.Equal(t, *NewInfo("", "", ""), *DefaultInfo())
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	NewInfo("v1.0.0", "2024-01-01", "abc123").Print(&buf)
	assert.Equal(t, "Build version: v1.0.0\nBuild date: 2024-01-01\nBuild commit: abc123\n", buf.String())
}

func TestFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	zap.New(core).Info("starting", NewInfo("v1.0.0", "", "abc").Fields()...)

	entry := logs.All()[0]
	ctx := entry.ContextMap()
	assert.Equal(t, "v1.0.0", ctx["version"])
	assert.Equal(t, "N/A", ctx["build_date"])
	assert.Equal(t, "abc", ctx["commit"])
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "qr-utility/v1.2.0", NewInfo("v1.2.0", "", "").UserAgent("qr-utility"))
	assert.Equal(t, "qr-utility", DefaultInfo().UserAgent("qr-utility"))
}
