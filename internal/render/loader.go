// Package render рисует QR-коды для сессии генератора: SVG для предпросмотра
// и выгрузки, PNG для выгрузки. Кодирование выполняет go-qrcode.
package render

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // декодер логотипа
	_ "image/png"  // декодер логотипа
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/generator"
)

const (
	maxLogoSize     = 2 << 20
	defaultLogoWait = 5 * time.Second
)

// Loader загружает движок рендеринга и, если задан, логотип
type Loader struct {
	logoURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// LoaderOption настраивает Loader
type LoaderOption func(*Loader)

// WithHTTPClient подменяет HTTP клиент загрузки логотипа
func WithHTTPClient(hc *http.Client) LoaderOption {
	return func(l *Loader) { l.httpClient = hc }
}

// NewLoader создает Loader. Пустой logoURL отключает загрузку логотипа.
func NewLoader(logoURL string, logger *zap.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		logoURL:    logoURL,
		httpClient: &http.Client{Timeout: defaultLogoWait},
		logger:     logger.With(zap.String("component", "render")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load возвращает движок. Ошибка загрузки логотипа не фатальна:
// вместо логотипа в PNG рисуется подложка.
func (l *Loader) Load(ctx context.Context) (generator.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := &Engine{logger: l.logger}
	if l.logoURL == "" {
		return e, nil
	}

	logo, err := l.fetchLogo(ctx)
	if err != nil {
		l.logger.Warn("Failed to fetch logo, using plate", zap.String("url", l.logoURL), zap.Error(err))
		return e, nil
	}
	e.logo = logo
	return e, nil
}

func (l *Loader) fetchLogo(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.logoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			l.logger.Error("Error closing logo body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxLogoSize))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	return img, nil
}

// Engine создает экземпляры рендерера
type Engine struct {
	logo   image.Image
	logger *zap.Logger
}

// NewEngine создает движок без сети; logo может быть nil
func NewEngine(logo image.Image, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logo: logo, logger: logger}
}

// New создает экземпляр и сразу кодирует данные
func (e *Engine) New(cfg generator.RenderConfig) (generator.Instance, error) {
	return e.NewInstance(cfg)
}

// NewInstance как New, но возвращает конкретный тип
func (e *Engine) NewInstance(cfg generator.RenderConfig) (*Instance, error) {
	inst := &Instance{engine: e}
	if err := inst.encode(cfg); err != nil {
		return nil, err
	}
	return inst, nil
}
