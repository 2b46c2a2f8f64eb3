package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/volunteerhub/portal/cmd/portal/cli"
	"github.com/volunteerhub/portal/internal/app"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return cli.ExitError
	}

	logger := app.NewLoggerTo(cfg, os.Stderr)

	rt, err := app.NewRuntime(ctx, cfg, logger, app.RuntimeOptions{})
	if err != nil {
		logger.Error("bootstrap runtime", slog.Any("error", err))
		return cli.ExitError
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close storage", slog.Any("error", err))
		}
	}()

	return cli.NewPortalCLI(rt, cfg, logger).Run(ctx, args, os.Stdout, os.Stderr)
}
