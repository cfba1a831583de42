package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/skip2/go-qrcode"

	"github.com/toolboxtech/qr-utility/internal/generator"
	"github.com/toolboxtech/qr-utility/internal/models"
)

const (
	mimeSVG = "image/svg+xml"
	mimePNG = "image/png"
	// доля стороны холста, которую занимает логотип
	logoRatio = 0.22
)

var (
	// ErrUnsupportedFormat запрошен формат, который рендерер не умеет выгружать
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrInvalidCanvas ширина и высота холста должны быть положительны и равны
	ErrInvalidCanvas = errors.New("invalid canvas size")
)

// Instance отрисованный QR-код. Безопасен для конкурентного использования.
type Instance struct {
	mu     sync.Mutex
	engine *Engine
	cfg    generator.RenderConfig
	dots   color.RGBA
	bg     color.RGBA
	matrix [][]bool
	mounts []generator.Mount
}

// Append выводит предпросмотр в точку монтирования
func (i *Instance) Append(m generator.Mount) error {
	if m == nil {
		return errors.New("render: nil mount")
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	i.mounts = append(i.mounts, m)
	m.Show(i.previewLocked())
	return nil
}

// Update перекодирует данные и перерисовывает все точки монтирования
func (i *Instance) Update(cfg generator.RenderConfig) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.encode(cfg); err != nil {
		return err
	}
	p := i.previewLocked()
	for _, m := range i.mounts {
		m.Show(p)
	}
	return nil
}

// Download выгружает QR-код в запрошенном формате
func (i *Instance) Download(ctx context.Context, opts generator.DownloadOptions) (generator.File, error) {
	if err := ctx.Err(); err != nil {
		return generator.File{}, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	f := generator.File{Name: opts.Name, Extension: opts.Extension}
	switch opts.Extension {
	case generator.FormatSVG:
		f.ContentType = mimeSVG
		f.Data = i.svgLocked()
	case generator.FormatPNG:
		data, err := i.pngLocked()
		if err != nil {
			return generator.File{}, err
		}
		f.ContentType = mimePNG
		f.Data = data
	default:
		return generator.File{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Extension)
	}
	return f, nil
}

// Config конфигурация, по которой отрисован экземпляр
func (i *Instance) Config() generator.RenderConfig {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cfg
}

func (i *Instance) previewLocked() generator.Preview {
	return generator.Preview{ContentType: mimeSVG, Data: i.svgLocked()}
}

// encode проверяет конфигурацию и строит матрицу модулей.
// При ошибке прежнее состояние сохраняется.
func (i *Instance) encode(cfg generator.RenderConfig) error {
	if cfg.Width <= 0 || cfg.Width != cfg.Height {
		return fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, cfg.Width, cfg.Height)
	}
	dots, err := parseColor(cfg.DotsOptions.Color)
	if err != nil {
		return err
	}
	bg, err := parseColor(cfg.BackgroundOptions.Color)
	if err != nil {
		return err
	}
	if _, err := models.ParseDotShape(string(cfg.DotsOptions.Type)); err != nil {
		return err
	}

	level := qrcode.Medium
	if cfg.Image != "" {
		level = qrcode.High
	}
	q, err := qrcode.New(cfg.Data, level)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	i.cfg = cfg
	i.dots = dots
	i.bg = bg
	i.matrix = q.Bitmap()
	return nil
}

// layout геометрия сетки модулей
type layout struct {
	n      int
	module float64
	logo   rect
	hasImg bool
}

type rect struct {
	x, y, w, h float64
}

func (r rect) contains(x, y, size float64) bool {
	return x+size > r.x && x < r.x+r.w && y+size > r.y && y < r.y+r.h
}

func (i *Instance) layoutLocked() layout {
	n := len(i.matrix)
	size := float64(i.cfg.Width)
	l := layout{n: n, module: size / float64(n)}
	if i.cfg.Image != "" {
		side := size * logoRatio
		margin := float64(i.cfg.ImageOptions.Margin)
		l.hasImg = true
		l.logo = rect{
			x: (size-side)/2 - margin,
			y: (size-side)/2 - margin,
			w: side + 2*margin,
			h: side + 2*margin,
		}
	}
	return l
}

// dark сообщает, рисуется ли модуль: под логотипом модули скрываются
func (l layout) dark(matrix [][]bool, row, col int) bool {
	if !matrix[row][col] {
		return false
	}
	if !l.hasImg {
		return true
	}
	return !l.logo.contains(float64(col)*l.module, float64(row)*l.module, l.module)
}
