package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/api"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/app"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/config"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
)

// main is the application composition root.
// It wires the cache backend and geocoder behind ports and starts the HTTP server.
func main() {
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		boot.Info().Msg("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(config.Env("DISPATCH_CONFIG", ""))
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}

	log, err := obs.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	if err != nil {
		boot.Fatal().Err(err).Msg("build logger")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	var metricsHandler http.Handler
	if cfg.Metrics.On() {
		metricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
	}

	router := api.NewRouter(api.Deps{
		Solver:  a.Solver,
		Config:  cfg,
		Journal: a.Journal,
		Metrics: metricsHandler,
		Log:     obs.Component(log, "http"),
	})

	// Timeouts are tuned for cold-cache solves (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("cache", cfg.Cache.Backend).Str("geocoder", cfg.Geocoder.Provider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		a.Solver.Cancel()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		shutdownErr := srv.Shutdown(shutdownCtx)
		if err := a.Close(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("address cache flush failed")
		}
		return shutdownErr
	})

	return g.Wait()
}
