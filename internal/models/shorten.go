package models

import "github.com/golang-jwt/jwt/v5"

// ShortenRequest тело запроса POST /api/shorten
type ShortenRequest struct {
	TargetURL  string  `json:"target_url"`
	CustomCode *string `json:"custom_code"`
}

// ShortenResponse успешный ответ API сокращения
type ShortenResponse struct {
	ShortURL string `json:"short_url"`
}

// ErrorResponse ответ API при ошибке (не-2xx статус)
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ShortURLResult результат сокращения, который видит сессия генератора
type ShortURLResult struct {
	URL     string `json:"url"`
	Status  string `json:"status"`
	Success bool   `json:"success"`
}

// AuditRecord запись о скачивании QR-кода
type AuditRecord struct {
	ContentType ContentType `json:"contentType"`
	Value       string      `json:"contentValue"`
	Timestamp   string      `json:"timestamp"`
}

// UserClaims данные, хранящиеся в JWT токене анонимного пользователя
type UserClaims struct {
	UserID    string `json:"user_id"`
	Anonymous bool   `json:"anonymous"`
	jwt.RegisteredClaims
}
