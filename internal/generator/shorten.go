package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/toolboxtech/qr-utility/internal/models"
	"github.com/toolboxtech/qr-utility/internal/shortclient"
)

// Сообщения, которые пользователь видит рядом с кнопкой сокращения
const (
	MsgEmptyTarget   = "Please enter a link to shorten."
	MsgNeedScheme    = "Please enter the full link, including http:// or https://"
	MsgShortenOK     = "Success! Short link generated."
	MsgAPIError      = "API error: %s"
	MsgUnreachable   = "Could not reach the shortening service. Please try again."
	autoSchemePrefix = "https://"
)

var (
	// ErrEmptyTarget поле ссылки пустое; запрос в сеть не отправлялся
	ErrEmptyTarget = errors.New("empty target url")
	// ErrNoScheme ссылка не начинается с http даже после автодополнения
	ErrNoScheme = errors.New("target url must start with http")
	// ErrShortenInFlight предыдущий запрос на сокращение еще выполняется
	ErrShortenInFlight = errors.New("shortening already in flight")
	// ErrShortenFailed API вернуло ошибку или оказалось недоступно
	ErrShortenFailed = errors.New("shortening failed")
)

// Shortener внешний API сокращения ссылок
type Shortener interface {
	Shorten(ctx context.Context, req models.ShortenRequest) (models.ShortenResponse, error)
}

// ShortenState состояние процесса сокращения
type ShortenState string

const (
	ShortenIdle     ShortenState = "idle"
	ShortenInFlight ShortenState = "in_flight"
	ShortenSuccess  ShortenState = "success"
	ShortenFailed   ShortenState = "failed"
)

// ShortenFlow конечный автомат сокращения: Idle -> InFlight -> Success|Failed.
// Не потокобезопасен: переходы выполняются под блокировкой Session, а сам
// сетевой вызов происходит между begin и finish без блокировки.
type ShortenFlow struct {
	state  ShortenState
	result models.ShortURLResult
}

func newShortenFlow() ShortenFlow {
	return ShortenFlow{state: ShortenIdle}
}

// State текущее состояние
func (f *ShortenFlow) State() ShortenState {
	return f.state
}

// Result текущий результат
func (f *ShortenFlow) Result() models.ShortURLResult {
	return f.result
}

// PrepareTarget дополняет ссылку схемой и проверяет ее
func PrepareTarget(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptyTarget
	}
	target := raw
	if !strings.HasPrefix(target, "http") {
		target = autoSchemePrefix + target
	}
	if !strings.HasPrefix(target, "http") {
		return "", ErrNoScheme
	}
	return target, nil
}

// begin проверяет ввод и переводит автомат в InFlight.
// Отклоненный ввод заменяет прежний результат сообщением без ссылки:
// запроса не было, автомат возвращается в Idle.
func (f *ShortenFlow) begin(raw, code string) (models.ShortenRequest, error) {
	if f.state == ShortenInFlight {
		return models.ShortenRequest{}, ErrShortenInFlight
	}

	target, err := PrepareTarget(raw)
	if err != nil {
		msg := MsgNeedScheme
		if errors.Is(err, ErrEmptyTarget) {
			msg = MsgEmptyTarget
		}
		f.state = ShortenIdle
		f.result = models.ShortURLResult{Status: msg}
		return models.ShortenRequest{}, err
	}

	f.state = ShortenInFlight
	f.result = models.ShortURLResult{}
	return shortclient.NewRequest(target, code), nil
}

// finish применяет ответ API. Результат применяется даже если пользователь
// уже переключил тип контента.
func (f *ShortenFlow) finish(resp models.ShortenResponse, err error) error {
	if err == nil {
		f.state = ShortenSuccess
		f.result = models.ShortURLResult{URL: resp.ShortURL, Status: MsgShortenOK, Success: true}
		return nil
	}

	f.state = ShortenFailed
	var apiErr *shortclient.APIError
	if errors.As(err, &apiErr) {
		f.result = models.ShortURLResult{Status: fmt.Sprintf(MsgAPIError, apiErr.Detail)}
	} else {
		f.result = models.ShortURLResult{Status: MsgUnreachable}
	}
	return fmt.Errorf("%w: %w", ErrShortenFailed, err)
}

// reset очищает результат и сообщение. Запрос в полете не прерывается.
func (f *ShortenFlow) reset() {
	f.result = models.ShortURLResult{}
	if f.state != ShortenInFlight {
		f.state = ShortenIdle
	}
}
