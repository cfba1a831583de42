// Package config собирает конфигурацию обоих серверов: генератора QR-кодов
// и API сокращения ссылок.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит конфигурацию приложения.
type Config struct {
	ServerAddress    string `env:"SERVER_ADDRESS"`     // Адрес HTTP-сервера генератора
	ShortenerAddress string `env:"SHORTENER_ADDRESS"`  // Адрес HTTP-сервера API сокращения
	BaseURL          string `env:"BASE_URL"`           // Базовый адрес сокращенных ссылок, которые выдает API
	ShortenerAPIURL  string `env:"SHORTENER_API_URL"`  // Адрес API сокращения, к которому обращается генератор
	ShortLinkDomain  string `env:"SHORT_LINK_DOMAIN"`  // Публичный домен, подставляемый в короткие ссылки
	JarBaseURL       string `env:"JAR_BASE_URL"`       // Префикс ссылок на банку
	LogoURL          string `env:"LOGO_URL"`           // Логотип в центре QR-кода
	AppID            string `env:"APP_ID"`             // Идентификатор приложения в журнале
	AppContext       string `env:"APP_CONTEXT"`        // Контекст приложения, пишется в журнал как есть
	InitialAuthToken string `env:"INITIAL_AUTH_TOKEN"` // Заранее выданный токен; пусто означает анонимный вход
	SecretKey        string `env:"SECRET_KEY"`         // Секрет подписи токенов и cookie

	DatabaseDSN     string `env:"DATABASE_DSN"`      // PostgreSQL для журнала и ссылок
	SQLitePath      string `env:"SQLITE_PATH"`       // SQLite для журнала
	AuditFilePath   string `env:"AUDIT_FILE_PATH"`   // Файл журнала (JSON lines)
	FileStoragePath string `env:"FILE_STORAGE_PATH"` // Файл хранилища ссылок

	DebounceWindow time.Duration `env:"DEBOUNCE_WINDOW"`
	ShortenTimeout time.Duration `env:"SHORTEN_TIMEOUT"`
	AuditTimeout   time.Duration `env:"AUDIT_TIMEOUT"`
	SessionTTL     time.Duration `env:"SESSION_TTL"`

	LogLevel    string `env:"LOG_LEVEL"`
	EnableHTTPS string `env:"ENABLE_HTTPS"` // Любое непустое значение включает HTTPS
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`
	ConfigFile  string `env:"CONFIG"` // Путь к JSON-файлу конфигурации
}

// JSONConfig конфигурация из файла. nil означает "не задано".
type JSONConfig struct {
	ServerAddress    *string `json:"server_address"`
	ShortenerAddress *string `json:"shortener_address"`
	BaseURL          *string `json:"base_url"`
	ShortenerAPIURL  *string `json:"shortener_api_url"`
	ShortLinkDomain  *string `json:"short_link_domain"`
	JarBaseURL       *string `json:"jar_base_url"`
	LogoURL          *string `json:"logo_url"`
	AppID            *string `json:"app_id"`
	AppContext       *string `json:"app_context"`
	InitialAuthToken *string `json:"initial_auth_token"`
	SecretKey        *string `json:"secret_key"`
	DatabaseDSN      *string `json:"database_dsn"`
	SQLitePath       *string `json:"sqlite_path"`
	AuditFilePath    *string `json:"audit_file_path"`
	FileStoragePath  *string `json:"file_storage_path"`
	DebounceWindow   *string `json:"debounce_window"`
	ShortenTimeout   *string `json:"shorten_timeout"`
	AuditTimeout     *string `json:"audit_timeout"`
	SessionTTL       *string `json:"session_ttl"`
	LogLevel         *string `json:"log_level"`
	EnableHTTPS      *bool   `json:"enable_https"`
	TLSCertFile      *string `json:"tls_cert_file"`
	TLSKeyFile       *string `json:"tls_key_file"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		ServerAddress:    ":8080",
		ShortenerAddress: ":8081",
		BaseURL:          "http://localhost:8081",
		ShortenerAPIURL:  "http://localhost:8081",
		ShortLinkDomain:  "https://toolboxtech.site",
		JarBaseURL:       "https://send.monobank.ua/jar/",
		AppID:            "qr-utility",
		SecretKey:        "your-secret-key",
		DebounceWindow:   300 * time.Millisecond,
		ShortenTimeout:   10 * time.Second,
		AuditTimeout:     5 * time.Second,
		SessionTTL:       30 * time.Minute,
		LogLevel:         "info",
		TLSCertFile:      "server.crt",
		TLSKeyFile:       "server.key",
	}
}

// NewConfig читает конфигурацию из аргументов процесса и окружения.
func NewConfig() (*Config, error) {
	return Load(os.Args[0], os.Args[1:])
}

// Load собирает конфигурацию. Приоритет по возрастанию: значения по умолчанию,
// JSON-файл, флаги командной строки, файл .env, переменные окружения.
func Load(name string, args []string) (*Config, error) {
	cfg := Default()

	// 1. Флаги. Сначала разбираем их в отдельную копию, чтобы узнать путь
	// к JSON-файлу, не затирая значения из него значениями по умолчанию.
	flagged := Default()
	flags := newFlagSet(name, flagged)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	// 2. JSON-файл
	configFile := flagged.ConfigFile
	if v := os.Getenv("CONFIG"); v != "" {
		configFile = v
	}
	jsonCfg, err := loadJSONConfig(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyJSONConfig(jsonCfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = configFile

	// 3. Явно заданные флаги перекрывают файл
	override := newFlagSet(name, cfg)
	flags.Visit(func(f *flag.Flag) {
		_ = override.Set(f.Name, f.Value.String())
	})

	// 4. .env не перезаписывает уже заданные переменные окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// 5. Переменные окружения (имеют наивысший приоритет)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newFlagSet(name string, cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.SetOutput(io.Discard)
	set.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "Адрес запуска сервера генератора (env: SERVER_ADDRESS)")
	set.StringVar(&cfg.ShortenerAddress, "r", cfg.ShortenerAddress, "Адрес запуска API сокращения (env: SHORTENER_ADDRESS)")
	set.StringVar(&cfg.BaseURL, "b", cfg.BaseURL, "Базовый адрес результирующего сокращённого URL (env: BASE_URL)")
	set.StringVar(&cfg.ShortenerAPIURL, "u", cfg.ShortenerAPIURL, "Адрес API сокращения для генератора (env: SHORTENER_API_URL)")
	set.StringVar(&cfg.ShortLinkDomain, "domain", cfg.ShortLinkDomain, "Публичный домен коротких ссылок (env: SHORT_LINK_DOMAIN)")
	set.StringVar(&cfg.JarBaseURL, "jar", cfg.JarBaseURL, "Префикс ссылок на банку (env: JAR_BASE_URL)")
	set.StringVar(&cfg.LogoURL, "logo", cfg.LogoURL, "Адрес логотипа (env: LOGO_URL)")
	set.StringVar(&cfg.AppID, "app", cfg.AppID, "Идентификатор приложения (env: APP_ID)")
	set.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "Секретный ключ подписи (env: SECRET_KEY)")
	set.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Строка подключения к PostgreSQL (env: DATABASE_DSN)")
	set.StringVar(&cfg.SQLitePath, "q", cfg.SQLitePath, "Путь к базе SQLite журнала (env: SQLITE_PATH)")
	set.StringVar(&cfg.AuditFilePath, "audit", cfg.AuditFilePath, "Путь к файлу журнала (env: AUDIT_FILE_PATH)")
	set.StringVar(&cfg.FileStoragePath, "f", cfg.FileStoragePath, "Путь к файлу хранилища ссылок (env: FILE_STORAGE_PATH)")
	set.DurationVar(&cfg.DebounceWindow, "debounce", cfg.DebounceWindow, "Окно тишины ввода (env: DEBOUNCE_WINDOW)")
	set.DurationVar(&cfg.ShortenTimeout, "shorten-timeout", cfg.ShortenTimeout, "Таймаут запроса сокращения (env: SHORTEN_TIMEOUT)")
	set.DurationVar(&cfg.AuditTimeout, "audit-timeout", cfg.AuditTimeout, "Таймаут записи журнала (env: AUDIT_TIMEOUT)")
	set.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Время жизни неактивной сессии (env: SESSION_TTL)")
	set.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "Уровень логирования (env: LOG_LEVEL)")
	set.StringVar(&cfg.EnableHTTPS, "s", cfg.EnableHTTPS, "Включить HTTPS (env: ENABLE_HTTPS)")
	set.StringVar(&cfg.TLSCertFile, "cert", cfg.TLSCertFile, "Файл сертификата (env: TLS_CERT_FILE)")
	set.StringVar(&cfg.TLSKeyFile, "key", cfg.TLSKeyFile, "Файл ключа (env: TLS_KEY_FILE)")
	set.StringVar(&cfg.ConfigFile, "c", cfg.ConfigFile, "Путь к JSON-файлу конфигурации (env: CONFIG)")
	return set
}

// loadJSONConfig читает файл конфигурации; пустое имя дает пустую конфигурацию
func loadJSONConfig(filename string) (*JSONConfig, error) {
	if filename == "" {
		return &JSONConfig{}, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg JSONConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// applyJSONConfig переносит заданные в файле значения
func (c *Config) applyJSONConfig(j *JSONConfig) error {
	strs := []struct {
		src *string
		dst *string
	}{
		{j.ServerAddress, &c.ServerAddress},
		{j.ShortenerAddress, &c.ShortenerAddress},
		{j.BaseURL, &c.BaseURL},
		{j.ShortenerAPIURL, &c.ShortenerAPIURL},
		{j.ShortLinkDomain, &c.ShortLinkDomain},
		{j.JarBaseURL, &c.JarBaseURL},
		{j.LogoURL, &c.LogoURL},
		{j.AppID, &c.AppID},
		{j.AppContext, &c.AppContext},
		{j.InitialAuthToken, &c.InitialAuthToken},
		{j.SecretKey, &c.SecretKey},
		{j.DatabaseDSN, &c.DatabaseDSN},
		{j.SQLitePath, &c.SQLitePath},
		{j.AuditFilePath, &c.AuditFilePath},
		{j.FileStoragePath, &c.FileStoragePath},
		{j.LogLevel, &c.LogLevel},
		{j.TLSCertFile, &c.TLSCertFile},
		{j.TLSKeyFile, &c.TLSKeyFile},
	}
	for _, s := range strs {
		if s.src != nil {
			*s.dst = *s.src
		}
	}

	durations := []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"debounce_window", j.DebounceWindow, &c.DebounceWindow},
		{"shorten_timeout", j.ShortenTimeout, &c.ShortenTimeout},
		{"audit_timeout", j.AuditTimeout, &c.AuditTimeout},
		{"session_ttl", j.SessionTTL, &c.SessionTTL},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("config %s: %w", d.name, err)
		}
		*d.dst = v
	}

	if j.EnableHTTPS != nil {
		if *j.EnableHTTPS {
			c.EnableHTTPS = "true"
		} else {
			c.EnableHTTPS = ""
		}
	}
	return nil
}

// IsHTTPSEnabled возвращает true, если HTTPS включен
func (c *Config) IsHTTPSEnabled() bool {
	return c.EnableHTTPS != ""
}
