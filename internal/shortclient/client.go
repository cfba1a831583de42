// Package shortclient клиент внешнего API сокращения ссылок.
package shortclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/models"
)

const (
	shortenPath    = "/api/shorten"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// APIError ответ API со статусом вне диапазона 2xx
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shortening API returned %d: %s", e.Status, e.Detail)
}

// Client вызывает POST {baseURL}/api/shorten
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient подменяет HTTP клиент (для тестов)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout задает таймаут одного запроса
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent задает заголовок User-Agent
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New создает клиент API сокращения
func New(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With(zap.String("component", "shortclient")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL возвращает базовый адрес API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Shorten отправляет запрос на сокращение. Повторов нет: любая ошибка
// окончательна для этой попытки.
func (c *Client) Shorten(ctx context.Context, req models.ShortenRequest) (models.ShortenResponse, error) {
	var out models.ShortenResponse

	body, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("shortclient: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+shortenPath, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("shortclient: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("ShortLink API call failed", zap.Error(err))
		return out, fmt.Errorf("shortclient: request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Error closing response body", zap.Error(err))
		}
	}()

	c.logger.Debug("ShortLink API responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, c.apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("shortclient: decode response: %w", err)
	}
	if out.ShortURL == "" {
		return out, fmt.Errorf("shortclient: empty short_url in response")
	}
	return out, nil
}

// apiError извлекает detail из тела ответа; если его нет, берется текст статуса
func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		var payload models.ErrorResponse
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Detail = payload.Detail
		}
	}
	if apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// NewRequest собирает тело запроса; пустой код передается как null
func NewRequest(target, customCode string) models.ShortenRequest {
	req := models.ShortenRequest{TargetURL: target}
	if customCode != "" {
		code := customCode
		req.CustomCode = &code
	}
	return req
}
