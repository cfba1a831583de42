// Package buildinfo хранит информацию о сборке: версию, дату и commit.
// Значения передаются через -ldflags в пакете main.
package buildinfo

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

const notAvailable = "N/A"

// Info содержит информацию о сборке приложения
type Info struct {
	Version string
	Date    string
	Commit  string
}

// DefaultInfo возвращает информацию о сборке по умолчанию
func DefaultInfo() *Info {
	return NewInfo("", "", "")
}

// NewInfo создает информацию о сборке; пустые значения заменяются на N/A
func NewInfo(version, date, commit string) *Info {
	return &Info{
		Version: orNA(version),
		Date:    orNA(date),
		Commit:  orNA(commit),
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// Print выводит информацию о сборке
func (info *Info) Print(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", info.Version)
	fmt.Fprintf(w, "Build date: %s\n", info.Date)
	fmt.Fprintf(w, "Build commit: %s\n", info.Commit)
}

// String возвращает строковое представление информации о сборке
func (info *Info) String() string {
	return fmt.Sprintf("Version: %s, Date: %s, Commit: %s", info.Version, info.Date, info.Commit)
}

// Fields поля для структурированного лога при старте
func (info *Info) Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", info.Version),
		zap.String("build_date", info.Date),
		zap.String("commit", info.Commit),
	}
}

// UserAgent значение заголовка User-Agent для исходящих запросов
func (info *Info) UserAgent(app string) string {
	if info.Version == notAvailable {
		return app
	}
	return app + "/" + info.Version
}
