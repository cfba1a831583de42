package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/models"
)

// Размеры холста и параметры логотипа, с которыми создается рендерер
const (
	CanvasSize      = 300
	LogoMargin      = 5
	LogoCrossOrigin = "anonymous"
	renderType      = "svg"
)

// Format формат выгружаемого файла
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ErrUnknownFormat возвращается для неподдерживаемого формата файла
var ErrUnknownFormat = errors.New("unknown file format")

// ParseFormat разбирает формат файла
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DotsOptions параметры модулей
type DotsOptions struct {
	Color string          `json:"color"`
	Type  models.DotShape `json:"type"`
}

// BackgroundOptions параметры фона
type BackgroundOptions struct {
	Color string `json:"color"`
}

// ImageOptions параметры логотипа
type ImageOptions struct {
	CrossOrigin string `json:"crossOrigin"`
	Margin      int    `json:"margin"`
}

// RenderConfig конфигурация, которой настраивается экземпляр рендерера
type RenderConfig struct {
	Width             int               `json:"width"`
	Height            int               `json:"height"`
	Type              string            `json:"type"`
	Data              string            `json:"data"`
	Image             string            `json:"image,omitempty"`
	DotsOptions       DotsOptions       `json:"dotsOptions"`
	BackgroundOptions BackgroundOptions `json:"backgroundOptions"`
	ImageOptions      ImageOptions      `json:"imageOptions"`
}

// BuildRenderConfig собирает конфигурацию из контента и стиля
func BuildRenderConfig(content string, style models.StyleOptions, logoURL string) RenderConfig {
	cfg := RenderConfig{
		Width:  CanvasSize,
		Height: CanvasSize,
		Type:   renderType,
		Data:   content,
		DotsOptions: DotsOptions{
			Color: style.DotColor,
			Type:  style.DotShape,
		},
		BackgroundOptions: BackgroundOptions{Color: style.BackgroundColor},
		ImageOptions: ImageOptions{
			CrossOrigin: LogoCrossOrigin,
			Margin:      LogoMargin,
		},
	}
	if style.Logo {
		cfg.Image = logoURL
	}
	return cfg
}

// DownloadOptions имя и расширение выгружаемого файла
type DownloadOptions struct {
	Name      string
	Extension Format
}

// File выгруженный файл
type File struct {
	Name        string
	Extension   Format
	ContentType string
	Data        []byte
}

// Filename возвращает имя файла с расширением
func (f File) Filename() string {
	return f.Name + "." + string(f.Extension)
}

// Preview отрисованный предпросмотр для точки монтирования
type Preview struct {
	ContentType string
	Data        []byte
}

// Mount точка монтирования, в которую рендерер выводит предпросмотр
type Mount interface {
	Show(p Preview)
}

// Instance экземпляр внешнего рендерера. Должен быть безопасен для
// конкурентного использования: Download вызывается вне блокировки сессии.
type Instance interface {
	Append(m Mount) error
	Update(cfg RenderConfig) error
	Download(ctx context.Context, opts DownloadOptions) (File, error)
}

// Engine загруженная библиотека рендеринга
type Engine interface {
	New(cfg RenderConfig) (Instance, error)
}

// Loader загружает библиотеку рендеринга
type Loader interface {
	Load(ctx context.Context) (Engine, error)
}

// RenderState состояние жизненного цикла рендерера
type RenderState string

const (
	RenderUnloaded RenderState = "unloaded"
	RenderReady    RenderState = "ready"
	RenderActive   RenderState = "active"
)

// RenderLifecycle владеет единственным экземпляром рендерера.
// Unloaded -> Ready (библиотека загружена) -> Active (есть точка монтирования).
// Экземпляр создается один раз за время жизни точки монтирования и далее
// обновляется на месте. Не потокобезопасен: вызовы сериализует Session.
type RenderLifecycle struct {
	state      RenderState
	loadFailed bool
	engine     Engine
	instance   Instance
	mount      Mount
	config     RenderConfig
	stale      bool
	created    int
	logger     *zap.Logger
}

// NewRenderLifecycle создает жизненный цикл в состоянии Unloaded
func NewRenderLifecycle(cfg RenderConfig, logger *zap.Logger) *RenderLifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderLifecycle{
		state:  RenderUnloaded,
		config: cfg,
		logger: logger,
	}
}

// State возвращает текущее состояние
func (r *RenderLifecycle) State() RenderState {
	return r.state
}

// LoadFailed сообщает, завершилась ли загрузка библиотеки ошибкой
func (r *RenderLifecycle) LoadFailed() bool {
	return r.loadFailed
}

// Created количество созданных экземпляров
func (r *RenderLifecycle) Created() int {
	return r.created
}

// Config последняя примененная конфигурация
func (r *RenderLifecycle) Config() RenderConfig {
	return r.config
}

// Loaded переводит Unloaded -> Ready и создает экземпляр, если точка
// монтирования уже есть
func (r *RenderLifecycle) Loaded(e Engine) error {
	if r.state != RenderUnloaded || r.loadFailed {
		return nil
	}
	r.engine = e
	r.state = RenderReady
	if r.mount != nil {
		return r.create()
	}
	return nil
}

// MarkLoadFailed фиксирует ошибку загрузки. Повторных попыток нет:
// состояние остается Unloaded навсегда.
func (r *RenderLifecycle) MarkLoadFailed(err error) {
	if r.state != RenderUnloaded {
		return
	}
	r.loadFailed = true
	r.logger.Error("Failed to load renderer", zap.Error(err))
}

// Mount подключает точку монтирования
func (r *RenderLifecycle) Mount(m Mount) error {
	if m == nil {
		return errors.New("nil mount")
	}
	if r.mount == m {
		return nil
	}
	if r.mount != nil {
		r.Unmount()
	}
	r.mount = m
	if r.state == RenderReady {
		return r.create()
	}
	return nil
}

// Unmount сбрасывает ссылку на экземпляр вместе с точкой монтирования.
// Освобождение ресурсов остается на совести рендерера.
func (r *RenderLifecycle) Unmount() {
	r.mount = nil
	r.instance = nil
	r.stale = false
	if r.state == RenderActive {
		r.state = RenderReady
	}
}

// Apply запоминает конфигурацию и обновляет экземпляр на месте.
// Если прежняя попытка создания провалилась, экземпляр создается заново.
func (r *RenderLifecycle) Apply(cfg RenderConfig) error {
	r.config = cfg
	switch {
	case r.state == RenderReady && r.mount != nil && r.instance == nil:
		return r.create()
	case r.state != RenderActive:
		return nil
	}
	if err := r.instance.Update(cfg); err != nil {
		r.stale = true
		return fmt.Errorf("update renderer: %w", err)
	}
	r.stale = false
	return nil
}

// Stale сообщает, что последнее обновление не применилось и экземпляр
// рисует прежний контент
func (r *RenderLifecycle) Stale() bool {
	return r.stale
}

// Instance возвращает живой экземпляр, если он есть
func (r *RenderLifecycle) Instance() (Instance, bool) {
	if r.state != RenderActive || r.instance == nil {
		return nil, false
	}
	return r.instance, true
}

func (r *RenderLifecycle) create() error {
	inst, err := r.engine.New(r.config)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	if err := inst.Append(r.mount); err != nil {
		return fmt.Errorf("append renderer: %w", err)
	}
	r.instance = inst
	r.stale = false
	r.state = RenderActive
	r.created++
	return nil
}
