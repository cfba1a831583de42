package web

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/auth"
	"github.com/toolboxtech/qr-utility/internal/generator"
	"github.com/toolboxtech/qr-utility/internal/models"
)

type nopAuditor struct{}

func (nopAuditor) Record(string, models.AuditRecord) {}

type nopShortener struct{}

func (nopShortener) Shorten(context.Context, models.ShortenRequest) (models.ShortenResponse, error) {
	return models.ShortenResponse{}, errors.New("unused")
}

type anonAuth struct{}

func (anonAuth) SignIn(context.Context, string) (auth.Identity, error) {
	return auth.Identity{UserID: "u1", Anonymous: true}, nil
}

func newTestRegistry(t *testing.T, ttl time.Duration) (*Registry, *time.Time) {
	t.Helper()
	factory := func(string) (*generator.Session, error) {
		return generator.NewSession(generator.Options{
			Loader: loaderFunc(func(context.Context) (generator.Engine, error) {
				return nil, errors.New("no renderer in registry tests")
			}),
			Authenticator: anonAuth{},
			Shortener:     nopShortener{},
			Auditor:       nopAuditor{},
		})
	}
	r := NewRegistry(factory, ttl, zap.NewNop())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	t.Cleanup(r.Close)
	return r, &now
}

func TestRegistryGetReusesSession(t *testing.T) {
	r, _ := newTestRegistry(t, time.Hour)

	a, err := r.Get("client-a", "")
	require.NoError(t, err)
	again, err := r.Get("client-a", "")
	require.NoError(t, err)
	b, err := r.Get("client-b", "")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistrySweep(t *testing.T) {
	r, now := newTestRegistry(t, 30*time.Minute)

	_, err := r.Get("old", "")
	require.NoError(t, err)
	*now = now.Add(20 * time.Minute)
	_, err = r.Get("fresh", "")
	require.NoError(t, err)

	*now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())

	// обращение продлевает жизнь сессии
	_, err = r.Get("fresh", "")
	require.NoError(t, err)
	*now = now.Add(29 * time.Minute)
	assert.Equal(t, 0, r.Sweep())
}

func TestRegistrySweepDisabled(t *testing.T) {
	r, now := newTestRegistry(t, 0)
	_, err := r.Get("a", "")
	require.NoError(t, err)
	*now = now.Add(100 * time.Hour)
	assert.Equal(t, 0, r.Sweep())
}

func TestRegistryRemoveAndClose(t *testing.T) {
	r, _ := newTestRegistry(t, time.Hour)

	e, err := r.Get("a", "")
	require.NoError(t, err)
	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Error(t, e.Session.Mount(&PreviewBuffer{}), "removed session is closed")

	_, err = r.Get("b", "")
	require.NoError(t, err)
	r.Close()
	assert.Equal(t, 0, r.Len())

	_, err = r.Get("c", "")
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistryFactoryError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry(func(string) (*generator.Session, error) { return nil, boom }, time.Hour, zap.NewNop())
	defer r.Close()

	_, err := r.Get("a", "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryJanitor(t *testing.T) {
	r, now := newTestRegistry(t, time.Minute)
	_, err := r.Get("a", "")
	require.NoError(t, err)

	r.mu.Lock()
	*now = now.Add(time.Hour)
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestPreviewBuffer(t *testing.T) {
	var b PreviewBuffer
	_, _, ok := b.Latest()
	assert.False(t, ok)

	data := []byte("<svg/>")
	b.Show(generator.Preview{ContentType: "image/svg+xml", Data: data})
	data[0] = 'X'

	p, v1, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, "<svg/>", string(p.Data), "buffer keeps its own copy")

	b.Show(generator.Preview{ContentType: "image/svg+xml", Data: []byte("<svg></svg>")})
	_, v2, _ := b.Latest()
	assert.Greater(t, v2, v1)

	b.Reset()
	_, _, ok = b.Latest()
	assert.False(t, ok)
}

func TestPlaceholderEscapes(t *testing.T) {
	svg := string(placeholderSVG("<b>&"))
	assert.Contains(t, svg, "&lt;b&gt;&amp;")
}
