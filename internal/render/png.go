package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/toolboxtech/qr-utility/internal/models"
)

const (
	roundedRadius = 0.35
	classyRadius  = 0.5
	plateBorder   = 2
)

// pngLocked растеризует модули той же формы, что и в SVG
func (i *Instance) pngLocked() ([]byte, error) {
	l := i.layoutLocked()
	size := i.cfg.Width

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: i.bg}, image.Point{}, draw.Src)

	s := l.module
	shape := i.cfg.DotsOptions.Type
	for row := 0; row < l.n; row++ {
		for col := 0; col < l.n; col++ {
			if !l.dark(i.matrix, row, col) {
				continue
			}
			fillModule(img, shape, float64(col)*s, float64(row)*s, s, i.dots)
		}
	}

	if l.hasImg {
		m := float64(i.cfg.ImageOptions.Margin)
		area := image.Rect(
			int(math.Round(l.logo.x+m)), int(math.Round(l.logo.y+m)),
			int(math.Round(l.logo.x+l.logo.w-m)), int(math.Round(l.logo.y+l.logo.h-m)),
		)
		if i.engine.logo != nil {
			drawScaled(img, area, i.engine.logo)
		} else {
			drawPlate(img, area, i.dots, i.bg)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// fillModule закрашивает пиксели, центр которых попадает в фигуру модуля
func fillModule(img *image.RGBA, shape models.DotShape, x, y, s float64, c color.RGBA) {
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := int(math.Ceil(x+s)), int(math.Ceil(y+s))
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			if inModule(shape, float64(px)+0.5-x, float64(py)+0.5-y, s) {
				img.SetRGBA(px, py, c)
			}
		}
	}
}

// inModule проверяет точку в локальных координатах модуля
func inModule(shape models.DotShape, u, v, s float64) bool {
	if u < 0 || v < 0 || u >= s || v >= s {
		return false
	}
	switch shape {
	case models.DotDots:
		return math.Hypot(u-s/2, v-s/2) <= s/2
	case models.DotRounded:
		r := s * roundedRadius
		return inRoundedCorner(u, v, s, r, true, true, true, true)
	case models.DotClassy:
		r := s * classyRadius
		return inRoundedCorner(u, v, s, r, true, false, true, false)
	default:
		return true
	}
}

// inRoundedCorner отсекает углы квадрата дугами радиуса r.
// Порядок углов: левый верхний, правый верхний, правый нижний, левый нижний.
func inRoundedCorner(u, v, s, r float64, tl, tr, br, bl bool) bool {
	corners := []struct {
		on     bool
		cx, cy float64
		left   bool
		top    bool
	}{
		{tl, r, r, true, true},
		{tr, s - r, r, false, true},
		{br, s - r, s - r, false, false},
		{bl, r, s - r, true, false},
	}
	for _, c := range corners {
		if !c.on {
			continue
		}
		inX := (c.left && u < c.cx) || (!c.left && u > c.cx)
		inY := (c.top && v < c.cy) || (!c.top && v > c.cy)
		if inX && inY && math.Hypot(u-c.cx, v-c.cy) > r {
			return false
		}
	}
	return true
}

// drawScaled вписывает логотип в область методом ближайшего соседа
func drawScaled(dst *image.RGBA, area image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if sb.Empty() || area.Empty() {
		return
	}
	scale := math.Min(float64(area.Dx())/float64(sb.Dx()), float64(area.Dy())/float64(sb.Dy()))
	w, h := int(float64(sb.Dx())*scale), int(float64(sb.Dy())*scale)
	off := image.Pt(area.Min.X+(area.Dx()-w)/2, area.Min.Y+(area.Dy()-h)/2)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := sb.Min.X + int(float64(x)/scale)
			sy := sb.Min.Y + int(float64(y)/scale)
			dst.Set(off.X+x, off.Y+y, blend(dst.RGBAAt(off.X+x, off.Y+y), src.At(sx, sy)))
		}
	}
}

// drawPlate рисует рамку на месте логотипа, который не удалось загрузить
func drawPlate(dst *image.RGBA, area image.Rectangle, border, fill color.RGBA) {
	draw.Draw(dst, area, &image.Uniform{C: border}, image.Point{}, draw.Src)
	draw.Draw(dst, area.Inset(plateBorder), &image.Uniform{C: fill}, image.Point{}, draw.Src)
}

func blend(dst color.RGBA, src color.Color) color.RGBA {
	r, g, b, a := src.RGBA()
	if a == 0xffff {
		return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
	}
	inv := 0xffff - a
	mix := func(d uint8, s uint32) uint8 {
		return uint8((uint32(d)*0x101*inv/0xffff + s) >> 8)
	}
	return color.RGBA{R: mix(dst.R, r), G: mix(dst.G, g), B: mix(dst.B, b), A: 0xff}
}
