package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wikihop/internal/app"
	xlog "wikihop/internal/log"
	"wikihop/internal/wikigg"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		base := xlog.Base()
		base.Fatal().Err(err).Msg("load config")
	}

	xlog.Configure(xlog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout})
	logger := xlog.WithComponent("server")

	wikis := wikigg.Builtin()
	handler, err := app.NewServer(cfg, wikis, xlog.WithComponent("http"))
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Int("wikis", len(wikis.Keys())).
			Str("default_wiki", wikis.DefaultKey()).
			Msg("wikihop listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
