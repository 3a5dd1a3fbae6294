package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/api"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/app"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/clients/auth"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/config"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/job"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/logger"
)

const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 30 * time.Second
	ShutdownTimeout = 10 * time.Second
)

const envPath = ".env"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New(envPath)
	panicOnErr("load config", err)

	l, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	panicOnErr("create logger", err)

	a, err := app.New(ctx, cfg, l)
	panicOnErr("build app", err)
	defer a.Close()

	if !cfg.PayWay.Configured() {
		slog.WarnContext(ctx, "ABA PayWay is not configured, payment endpoints will fail",
			"enabled", cfg.PayWay.Enabled)
	}

	authService := auth.NewClient(cfg.AuthServiceURL, cfg.AuthRetries)

	jobs := job.NewService().
		TryRegisterJob(cfg.Poller.Enabled, "payway status poller", cfg.Poller.Interval, cfg.Poller.Interval,
			a.Service.PollPendingPayments)
	jobs.Start(ctx)

	handler := api.NewHandler(a.Service)
	mw := api.NewMiddleware(authService, cfg.PayWay.CallbackIPWL)

	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panicf("listen and serve: %s", err)
		}
	}()

	slog.InfoContext(ctx, "service started", "port", cfg.HTTP.Port, "storage", cfg.Storage.Driver,
		"broker", cfg.Broker.Driver)

	wg.Add(1)

	go func() {
		defer wg.Done()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP)

		for sig := range ch {
			if sig == syscall.SIGHUP {
				reload(ctx, a)
				continue
			}

			slog.InfoContext(ctx, "got OS signal", "signal", sig.String())

			break
		}

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer shutdownCancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.ErrorContext(ctx, "server shutdown", "error", err)
		}
	}()

	wg.Wait()
	jobs.Stop()
}

// reload re-reads the gateway settings. Everything else needs a restart.
func reload(ctx context.Context, a *app.App) {
	cfg, err := config.Reload(envPath)
	if err != nil {
		slog.ErrorContext(ctx, "reload config", "error", err)
		return
	}

	a.PayWay.Reload(cfg.PayWay)

	slog.InfoContext(ctx, "payway settings reloaded",
		"enabled", cfg.PayWay.Enabled,
		"configured", cfg.PayWay.Configured(),
		"base_url", cfg.PayWay.BaseURL,
	)
}

func panicOnErr(msg string, err error) {
	if err != nil {
		log.Panicf("%s: %s", msg, err)
	}
}
