// Package models содержит общие типы предметной области генератора QR-кодов
// и структуры запросов/ответов API сокращения ссылок.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ContentType определяет, как интерпретируется введенный текст.
type ContentType string

const (
	ContentURL       ContentType = "URL"
	ContentText      ContentType = "Text"
	ContentEmail     ContentType = "Email"
	ContentPhone     ContentType = "Phone"
	ContentMonobank  ContentType = "Monobank" // ссылка на банку (PaymentJar)
	ContentShortLink ContentType = "ShortLink"
)

// ErrUnknownContentType возвращается при разборе неизвестного типа контента
var ErrUnknownContentType = errors.New("unknown content type")

// ContentTypes возвращает все типы в порядке отображения в форме
func ContentTypes() []ContentType {
	return []ContentType{ContentURL, ContentText, ContentEmail, ContentPhone, ContentMonobank, ContentShortLink}
}

// ParseContentType разбирает тип без учета регистра.
// PaymentJar принимается как синоним Monobank.
func ParseContentType(s string) (ContentType, error) {
	v := strings.TrimSpace(s)
	if strings.EqualFold(v, "PaymentJar") {
		return ContentMonobank, nil
	}
	for _, ct := range ContentTypes() {
		if strings.EqualFold(v, string(ct)) {
			return ct, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContentType, s)
}

// Placeholder возвращает подсказку для поля ввода данного типа
func Placeholder(ct ContentType) string {
	switch ct {
	case ContentURL:
		return "https://google.com"
	case ContentText:
		return "Any text can go here..."
	case ContentEmail:
		return "mail@example.com"
	case ContentPhone:
		return "+380991234567"
	case ContentMonobank:
		return "your jar ID (for example, 4tVp)"
	case ContentShortLink:
		return "https://a-very-long-link.com/blah-blah"
	default:
		return ""
	}
}
