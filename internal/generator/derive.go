// Package generator реализует сессию генератора QR-кодов: отложенный ввод,
// вычисление кодируемой строки, жизненный цикл рендерера, сокращение ссылок
// и скачивание с записью в журнал использования.
package generator

import (
	"strings"
	"unicode"

	"github.com/toolboxtech/qr-utility/internal/models"
)

// DeriveSettings константы, от которых зависит вычисление контента
type DeriveSettings struct {
	DisplayDomain string // публичный домен коротких ссылок
	APIBaseURL    string // хост API сокращения, заменяемый на DisplayDomain
	JarBaseURL    string // префикс ссылки на банку
	JarRootURL    string // корень сервиса банок
	DefaultText   string // текст по умолчанию для типа Text
}

// DefaultDeriveSettings возвращает настройки по умолчанию
func DefaultDeriveSettings() DeriveSettings {
	return DeriveSettings{
		DisplayDomain: "https://toolboxtech.site",
		APIBaseURL:    "https://qr-utility-api.onrender.com",
		JarBaseURL:    "https://send.monobank.ua/jar/",
		JarRootURL:    "https://send.monobank.ua/",
		DefaultText:   "QR Generator MVP",
	}
}

// withDefaults заполняет пустые поля значениями по умолчанию,
// иначе пустой DisplayDomain нарушил бы инвариант непустого контента.
func (s DeriveSettings) withDefaults() DeriveSettings {
	d := DefaultDeriveSettings()
	if s.DisplayDomain == "" {
		s.DisplayDomain = d.DisplayDomain
	}
	if s.JarBaseURL == "" {
		s.JarBaseURL = d.JarBaseURL
	}
	if s.JarRootURL == "" {
		s.JarRootURL = d.JarRootURL
	}
	if s.DefaultText == "" {
		s.DefaultText = d.DefaultText
	}
	return s
}

// Derive вычисляет строку для кодирования. Чистая функция; результат
// никогда не бывает пустым.
func Derive(s DeriveSettings, ct models.ContentType, input, shortURL string) string {
	s = s.withDefaults()

	switch ct {
	case models.ContentURL:
		if strings.HasPrefix(input, "http") {
			return input
		}
		if input != "" {
			return "https://" + input
		}
		return s.DisplayDomain
	case models.ContentText:
		if input == "" {
			return s.DefaultText
		}
		return input
	case models.ContentEmail:
		return "mailto:" + input
	case models.ContentPhone:
		return "tel:" + stripSpaces(input)
	case models.ContentMonobank:
		if input != "" {
			return s.JarBaseURL + input
		}
		return s.JarRootURL
	case models.ContentShortLink:
		return displayShortURL(s, shortURL)
	default:
		return s.DisplayDomain
	}
}

// displayShortURL подменяет хост API на публичный домен
func displayShortURL(s DeriveSettings, shortURL string) string {
	if shortURL == "" {
		return s.DisplayDomain
	}
	if s.APIBaseURL != "" && strings.Contains(shortURL, s.APIBaseURL) {
		return strings.Replace(shortURL, s.APIBaseURL, s.DisplayDomain, 1)
	}
	return shortURL
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeCode удаляет из пользовательского кода все символы вне [A-Za-z0-9_-]
func SanitizeCode(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, s)
}
