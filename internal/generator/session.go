package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/auth"
	"github.com/toolboxtech/qr-utility/internal/models"
)

// Authenticator устанавливает личность сессии при старте
type Authenticator interface {
	SignIn(ctx context.Context, token string) (auth.Identity, error)
}

// Auditor журнал скачиваний. Сигнатура без ошибки: запись выполняется
// в фоне, а ее сбой вызывающий не видит.
type Auditor interface {
	Record(userID string, rec models.AuditRecord)
}

// AuthState состояние анонимного входа
type AuthState string

const (
	AuthPending AuthState = "pending"
	AuthReady   AuthState = "ready"
	AuthFailed  AuthState = "failed"
)

// Options зависимости и настройки сессии
type Options struct {
	Settings       DeriveSettings
	LogoURL        string
	DebounceWindow time.Duration
	Clock          Clock
	Loader         Loader
	Authenticator  Authenticator
	InitialToken   string
	Shortener      Shortener
	Auditor        Auditor
	Logger         *zap.Logger
	Now            func() time.Time
}

// Session сессия генератора. Явно владеет всем состоянием, которое в
// браузерной версии жило в глобальных переменных модуля. Все изменения
// сериализуются мьютексом; сетевые вызовы выполняются без блокировки.
type Session struct {
	mu sync.Mutex

	settings  DeriveSettings
	logoURL   string
	loader    Loader
	authn     Authenticator
	token     string
	shortener Shortener
	auditor   Auditor
	logger    *zap.Logger
	now       func() time.Time

	contentType models.ContentType
	raw         string
	debounced   string
	customCode  string
	style       models.StyleOptions
	derived     string
	shorten     ShortenFlow
	render      *RenderLifecycle
	authState   AuthState
	identity    auth.Identity
	closed      bool

	debouncer *Debouncer[string]
	startOnce sync.Once
	bootstrap sync.WaitGroup
}

// NewSession создает сессию. Библиотека рендеринга и личность
// появляются только после Start.
func NewSession(opts Options) (*Session, error) {
	if opts.Loader == nil {
		return nil, errors.New("generator: loader is required")
	}
	if opts.Authenticator == nil {
		return nil, errors.New("generator: authenticator is required")
	}
	if opts.Shortener == nil {
		return nil, errors.New("generator: shortener is required")
	}
	if opts.Auditor == nil {
		return nil, errors.New("generator: auditor is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		settings:    opts.Settings.withDefaults(),
		logoURL:     opts.LogoURL,
		loader:      opts.Loader,
		authn:       opts.Authenticator,
		token:       opts.InitialToken,
		shortener:   opts.Shortener,
		auditor:     opts.Auditor,
		logger:      opts.Logger,
		now:         opts.Now,
		contentType: models.ContentURL,
		style:       models.DefaultStyle(),
		shorten:     newShortenFlow(),
		authState:   AuthPending,
	}
	s.derived = Derive(s.settings, s.contentType, s.debounced, "")
	s.render = NewRenderLifecycle(s.renderConfigLocked(), opts.Logger)
	s.debouncer = NewDebouncer(opts.Clock, opts.DebounceWindow, s.applyDebounced)
	return s, nil
}

// Start запускает вход и загрузку рендерера в фоне. Обе ошибки окончательны:
// повторных попыток нет, функция остается деградированной.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.bootstrap.Add(2)
		go s.signIn(ctx)
		go s.loadRenderer(ctx)
	})
}

// WaitStarted ждет завершения фоновой инициализации (успешной или нет)
func (s *Session) WaitStarted() {
	s.bootstrap.Wait()
}

func (s *Session) signIn(ctx context.Context) {
	defer s.bootstrap.Done()

	id, err := s.authn.SignIn(ctx, s.token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.authState = AuthFailed
		s.logger.Error("Auth setup failed", zap.Error(err))
		return
	}
	s.identity = id
	s.authState = AuthReady
	s.logger.Debug("Auth ready", zap.String("user_id", id.UserID), zap.Bool("anonymous", id.Anonymous))
}

func (s *Session) loadRenderer(ctx context.Context) {
	defer s.bootstrap.Done()

	engine, err := s.loader.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.render.MarkLoadFailed(err)
		return
	}
	if s.closed {
		return
	}
	if err := s.render.Loaded(engine); err != nil {
		s.logger.Error("Failed to create renderer instance", zap.Error(err))
	}
}

// SetContentType переключает тип контента. Введенный текст сохраняется:
// одно поле ввода общее для всех типов. Уход с ShortLink сбрасывает
// результат сокращения и его сообщение.
func (s *Session) SetContentType(ct models.ContentType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contentType = ct
	if ct != models.ContentShortLink {
		s.shorten.reset()
	}
	s.recomputeLocked()
}

// SetInput принимает сырой ввод; контент пересчитается после окна тишины
func (s *Session) SetInput(raw string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.raw = raw
	s.mu.Unlock()

	s.debouncer.Push(raw)
}

func (s *Session) applyDebounced(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.debounced = v
	s.recomputeLocked()
}

// SetCustomCode сохраняет пользовательский код, удаляя недопустимые символы
func (s *Session) SetCustomCode(code string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customCode = SanitizeCode(code)
	return s.customCode
}

// UpdateStyle применяет частичное обновление стиля
func (s *Session) UpdateStyle(p models.StylePatch) (models.StyleOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.style.Apply(p)
	if err != nil {
		return s.style, err
	}
	s.style = next
	s.applyRenderLocked()
	return s.style, nil
}

// Shorten отправляет текущий ввод в API сокращения. Во время запроса
// остальные операции сессии доступны; повторная отправка отклоняется.
func (s *Session) Shorten(ctx context.Context) error {
	s.mu.Lock()
	req, err := s.shorten.begin(s.raw, s.customCode)
	if errors.Is(err, ErrShortenInFlight) {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.recomputeLocked()
		s.mu.Unlock()
		return err
	}
	s.recomputeLocked()
	s.mu.Unlock()

	resp, callErr := s.shortener.Shorten(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.shorten.finish(resp, callErr)
	s.recomputeLocked()
	if err != nil {
		s.logger.Warn("Shortening failed", zap.String("target", req.TargetURL), zap.Error(callErr))
	}
	return err
}

// Download выгружает QR-код. Без экземпляра рендерера ничего не делает.
// Ошибка выгрузки только логируется: вызывающий получает ok=false.
// Экземпляр, не принявший текущий контент, не выгружается.
// После успешной выгрузки в фоне пишется запись в журнал.
func (s *Session) Download(ctx context.Context, format Format) (File, bool) {
	s.mu.Lock()
	inst, ok := s.render.Instance()
	if !ok {
		s.mu.Unlock()
		return File{}, false
	}
	if s.render.Stale() {
		s.mu.Unlock()
		s.logger.Error("Download skipped: renderer does not hold current content",
			zap.String("format", string(format)))
		return File{}, false
	}
	ct := s.contentType
	value := s.derived
	var userID string
	if s.authState == AuthReady {
		userID = s.identity.UserID
	}
	s.mu.Unlock()

	file, err := inst.Download(ctx, DownloadOptions{
		Name:      "qr_code_" + strings.ToLower(string(ct)),
		Extension: format,
	})
	if err != nil {
		s.logger.Error("Download failed", zap.String("format", string(format)), zap.Error(err))
		return File{}, false
	}

	s.logger.Info("QR code downloaded",
		zap.String("file", file.Filename()),
		zap.String("size", humanize.Bytes(uint64(len(file.Data)))))

	s.auditor.Record(userID, models.AuditRecord{
		ContentType: ct,
		Value:       value,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	})
	return file, true
}

// Mount подключает точку монтирования предпросмотра
func (s *Session) Mount(m Mount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("generator: session closed")
	}
	return s.render.Mount(m)
}

// Unmount отключает точку монтирования; экземпляр рендерера сбрасывается
func (s *Session) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render.Unmount()
}

// Close останавливает отложенный ввод и сбрасывает рендерер
func (s *Session) Close() {
	s.debouncer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.render.Unmount()
}

// Content текущая кодируемая строка
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.derived
}

// recomputeLocked пересчитывает контент и обновляет рендерер
func (s *Session) recomputeLocked() {
	s.derived = Derive(s.settings, s.contentType, s.debounced, s.shorten.result.URL)
	s.applyRenderLocked()
}

func (s *Session) applyRenderLocked() {
	if err := s.render.Apply(s.renderConfigLocked()); err != nil {
		s.logger.Error("Failed to update renderer", zap.Error(err))
	}
}

func (s *Session) renderConfigLocked() RenderConfig {
	return BuildRenderConfig(s.derived, s.style, s.logoURL)
}

// State снимок состояния сессии для отображения
type State struct {
	ContentType      models.ContentType    `json:"contentType"`
	Placeholder      string                `json:"placeholder"`
	Input            string                `json:"input"`
	DebouncedInput   string                `json:"debouncedInput"`
	CustomCode       string                `json:"customCode"`
	Style            models.StyleOptions   `json:"style"`
	Content          string                `json:"content"`
	ShortLink        models.ShortURLResult `json:"shortLink"`
	ShortLinkPreview string                `json:"shortLinkPreview"`
	ShortenState     ShortenState          `json:"shortenState"`
	CanShorten       bool                  `json:"canShorten"`
	JarPreview       string                `json:"jarPreview,omitempty"`
	Renderer         RenderState           `json:"renderer"`
	RendererFailed   bool                  `json:"rendererFailed"`
	RendererStale    bool                  `json:"rendererStale"`
	Auth             AuthState             `json:"auth"`
	UserID           string                `json:"userId,omitempty"`
}

// State возвращает снимок состояния
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ContentType:      s.contentType,
		Placeholder:      models.Placeholder(s.contentType),
		Input:            s.raw,
		DebouncedInput:   s.debounced,
		CustomCode:       s.customCode,
		Style:            s.style,
		Content:          s.derived,
		ShortLink:        s.shorten.Result(),
		ShortLinkPreview: Derive(s.settings, models.ContentShortLink, "", s.shorten.Result().URL),
		ShortenState:     s.shorten.State(),
		CanShorten:       s.shorten.State() != ShortenInFlight && s.raw != "",
		Renderer:         s.render.State(),
		RendererFailed:   s.render.LoadFailed(),
		RendererStale:    s.render.Stale(),
		Auth:             s.authState,
	}
	if s.contentType == models.ContentMonobank {
		st.JarPreview = s.settings.JarBaseURL + s.raw
	}
	if s.authState == AuthReady {
		st.UserID = s.identity.UserID
	}
	return st
}
