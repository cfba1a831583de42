package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DotShape форма модулей QR-кода (имена совпадают с параметрами рендерера)
type DotShape string

const (
	DotSquare  DotShape = "square"
	DotDots    DotShape = "dots"
	DotRounded DotShape = "rounded"
	DotClassy  DotShape = "classy"
)

var (
	// ErrUnknownDotShape возвращается при разборе неизвестной формы точек
	ErrUnknownDotShape = errors.New("unknown dot shape")
	// ErrInvalidColor возвращается для цвета не в формате #rgb / #rrggbb
	ErrInvalidColor = errors.New("invalid color")
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ParseDotShape разбирает форму точек. "dot" принимается как синоним "dots".
func ParseDotShape(s string) (DotShape, error) {
	switch v := DotShape(strings.ToLower(strings.TrimSpace(s))); v {
	case DotSquare, DotDots, DotRounded, DotClassy:
		return v, nil
	case "dot":
		return DotDots, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDotShape, s)
	}
}

// ValidateColor проверяет цвет в формате #rgb или #rrggbb
func ValidateColor(c string) error {
	if !colorPattern.MatchString(c) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c)
	}
	return nil
}

// StyleOptions косметические настройки QR-кода, не зависят от типа контента
type StyleOptions struct {
	DotColor        string   `json:"dotColor" msgpack:"dc"`
	BackgroundColor string   `json:"backgroundColor" msgpack:"bg"`
	DotShape        DotShape `json:"dotShape" msgpack:"ds"`
	Logo            bool     `json:"logo" msgpack:"lg"`
}

// DefaultStyle возвращает стиль по умолчанию
func DefaultStyle() StyleOptions {
	return StyleOptions{
		DotColor:        "#1e293b",
		BackgroundColor: "#ffffff",
		DotShape:        DotSquare,
	}
}

// StylePatch частичное обновление стиля: nil означает "не менять"
type StylePatch struct {
	DotColor        *string `json:"dotColor,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	DotShape        *string `json:"dotShape,omitempty"`
	Logo            *bool   `json:"logo,omitempty"`
}

// Apply возвращает стиль с примененным патчем.
// При ошибке в любом поле исходный стиль не меняется.
func (s StyleOptions) Apply(p StylePatch) (StyleOptions, error) {
	next := s
	if p.DotColor != nil {
		if err := ValidateColor(*p.DotColor); err != nil {
			return s, err
		}
		next.DotColor = *p.DotColor
	}
	if p.BackgroundColor != nil {
		if err := ValidateColor(*p.BackgroundColor); err != nil {
			return s, err
		}
		next.BackgroundColor = *p.BackgroundColor
	}
	if p.DotShape != nil {
		shape, err := ParseDotShape(*p.DotShape)
		if err != nil {
			return s, err
		}
		next.DotShape = shape
	}
	if p.Logo != nil {
		next.Logo = *p.Logo
	}
	return next, nil
}
