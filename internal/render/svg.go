package render

import (
	"fmt"
	"html"
	"image/color"
	"strings"

	"github.com/toolboxtech/qr-utility/internal/models"
)

// svgLocked строит SVG: фон, по элементу на каждый темный модуль и логотип
func (i *Instance) svgLocked() []byte {
	l := i.layoutLocked()
	size := i.cfg.Width

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, size, size, size, size)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, size, size, hexColor(i.bg))
	fmt.Fprintf(&b, `<g fill="%s">`, hexColor(i.dots))

	s := l.module
	for row := 0; row < l.n; row++ {
		for col := 0; col < l.n; col++ {
			if !l.dark(i.matrix, row, col) {
				continue
			}
			x, y := float64(col)*s, float64(row)*s
			writeModule(&b, i.cfg.DotsOptions.Type, x, y, s)
		}
	}
	b.WriteString(`</g>`)

	if l.hasImg {
		m := float64(i.cfg.ImageOptions.Margin)
		fmt.Fprintf(&b, `<image href="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" crossorigin="%s" preserveAspectRatio="xMidYMid meet"/>`,
			html.EscapeString(i.cfg.Image), l.logo.x+m, l.logo.y+m, l.logo.w-2*m, l.logo.h-2*m,
			html.EscapeString(i.cfg.ImageOptions.CrossOrigin))
	}
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func writeModule(b *strings.Builder, shape models.DotShape, x, y, s float64) {
	switch shape {
	case models.DotDots:
		fmt.Fprintf(b, `<circle cx="%.2f" cy="%.2f" r="%.2f"/>`, x+s/2, y+s/2, s/2)
	case models.DotRounded:
		fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f"/>`, x, y, s, s, s*roundedRadius)
	case models.DotClassy:
		// скруглены левый верхний и правый нижний углы
		r := s * classyRadius
		fmt.Fprintf(b, `<path d="M%.2f %.2fH%.2fV%.2fA%.2f %.2f 0 0 1 %.2f %.2fH%.2fV%.2fA%.2f %.2f 0 0 1 %.2f %.2fZ"/>`,
			x+r, y, x+s, y+s-r, r, r, x+s-r, y+s, x, y+r, r, r, x+r, y)
	default:
		fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`, x, y, s, s)
	}
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
