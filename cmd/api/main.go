package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"account-dispenser/app"
	"account-dispenser/internal/observability"
)

var configFile = flag.String("config", "", "path to an optional TOML config file")

func main() {
	flag.Parse()

	logger := observability.NewLogger()

	runtime, err := app.Build(app.Options{
		LoadDotEnv: true,
		ConfigFile: *configFile,
	})
	if err != nil {
		logger.Error("bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	cfg := runtime.Config
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      runtime.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		logger.Info("server_shutdown", map[string]any{"addr": server.Addr})

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server_shutdown_failed", map[string]any{"error": err.Error()})
		}
	}()

	logger.Info("server_start", map[string]any{"addr": server.Addr})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server_failed", map[string]any{"error": err.Error()})
		_ = runtime.Close()
		os.Exit(1)
	}

	<-done
	if err := runtime.Close(); err != nil {
		logger.Error("store_close_failed", map[string]any{"error": err.Error()})
	}
}
