package generator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/toolboxtech/qr-utility/internal/auth"
	"github.com/toolboxtech/qr-utility/internal/models"
)

// manualClock срабатывает только по вызову Advance
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type fakeMount struct {
	mu    sync.Mutex
	shown []Preview
}

func (m *fakeMount) Show(p Preview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, p)
}

type fakeInstance struct {
	mu          sync.Mutex
	mount       Mount
	configs     []RenderConfig
	updateErr   error
	downloadErr error
	downloads   []DownloadOptions
}

func (i *fakeInstance) Append(m Mount) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.mount = m
	return nil
}

func (i *fakeInstance) Update(cfg RenderConfig) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.updateErr != nil {
		return i.updateErr
	}
	i.configs = append(i.configs, cfg)
	return nil
}

func (i *fakeInstance) setUpdateErr(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.updateErr = err
}

func (i *fakeInstance) Download(_ context.Context, opts DownloadOptions) (File, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.downloads = append(i.downloads, opts)
	if i.downloadErr != nil {
		return File{}, i.downloadErr
	}
	return File{Name: opts.Name, Extension: opts.Extension, ContentType: "image/png", Data: []byte("qr")}, nil
}

func (i *fakeInstance) lastConfig() RenderConfig {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.configs) == 0 {
		return RenderConfig{}
	}
	return i.configs[len(i.configs)-1]
}

type fakeEngine struct {
	mu        sync.Mutex
	instances []*fakeInstance
	initial   []RenderConfig
	newErr    error
	dlErr     error
	maxData   int
}

func (e *fakeEngine) New(cfg RenderConfig) (Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.newErr != nil {
		return nil, e.newErr
	}
	if len(cfg.Data) > e.maxData && e.maxData > 0 {
		return nil, errTooLong
	}
	inst := &fakeInstance{downloadErr: e.dlErr}
	e.instances = append(e.instances, inst)
	e.initial = append(e.initial, cfg)
	return inst, nil
}

func (e *fakeEngine) last() *fakeInstance {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.instances) == 0 {
		return nil
	}
	return e.instances[len(e.instances)-1]
}

type fakeLoader struct {
	engine Engine
	err    error
}

func (l fakeLoader) Load(context.Context) (Engine, error) {
	return l.engine, l.err
}

type fakeAuthenticator struct {
	id  auth.Identity
	err error
}

func (a fakeAuthenticator) SignIn(context.Context, string) (auth.Identity, error) {
	return a.id, a.err
}

type shortenCall struct {
	req models.ShortenRequest
}

// fakeShortener отвечает заранее заданным результатом. Если задан gate,
// ответ задерживается до его закрытия.
type fakeShortener struct {
	mu      sync.Mutex
	calls   []shortenCall
	resp    models.ShortenResponse
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeShortener) Shorten(_ context.Context, req models.ShortenRequest) (models.ShortenResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, shortenCall{req: req})
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return f.resp, f.err
}

func (f *fakeShortener) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type auditEntry struct {
	userID string
	rec    models.AuditRecord
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAuditor) Record(userID string, rec models.AuditRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{userID: userID, rec: rec})
}

func (a *fakeAuditor) all() []auditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]auditEntry(nil), a.entries...)
}

var (
	errBoom    = errors.New("boom")
	errTooLong = errors.New("content too long")
)
