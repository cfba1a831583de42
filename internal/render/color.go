package render

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/toolboxtech/qr-utility/internal/models"
)

// parseColor разбирает #rgb и #rrggbb
func parseColor(s string) (color.RGBA, error) {
	if err := models.ValidateColor(s); err != nil {
		return color.RGBA{}, err
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", models.ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
