// Команда shortener запускает API сокращения ссылок.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/app"
	"github.com/toolboxtech/qr-utility/internal/buildinfo"
	"github.com/toolboxtech/qr-utility/internal/config"
	"github.com/toolboxtech/qr-utility/internal/server"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	info := buildinfo.NewInfo(buildVersion, buildDate, buildCommit)
	info.Print(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[0], os.Args[1:], info)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, name string, args []string, info *buildinfo.Info) error {
	cfg, err := config.Load(name, args)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger, syncLogger, err := server.InitLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer syncLogger()
	logger.Info("Starting shortener", info.Fields()...)

	application, err := app.NewShortenerApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Error creating shortener", zap.Error(err))
		return err
	}
	return application.Run(ctx)
}
