package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/logtrace"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/apis"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/bom"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/sqlstore"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/eventbus"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/metrics"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/server"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/worker"
)

const (
	eventBufferSize  = 256
	eventSendTimeout = 100 * time.Millisecond
	shutdownTimeout  = 30 * time.Second
)

type cmdoptions struct {
	configFile string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	opt := parseFlags()

	if err := config.LoadConfig(opt.configFile); err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	cfg := config.Config()
	if err := logtrace.InitLogger(cfg.LogLevel); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	slog := log.With().Str("state", "init").Logger()
	slog.Info().Str("config_file", opt.configFile).Msg("config loaded")
	ctx = log.Logger.WithContext(ctx)

	store, err := sqlstore.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	collector := metrics.New()
	bus := eventbus.New(eventbus.WithDropHandler(collector.EventDropped))
	defer bus.Shutdown()
	stopEventLog := server.StartEventLog(ctx, bus, eventBufferSize)
	defer stopEventLog()

	internal, err := ingest.NewInternalMatcher(cfg.InternalComponents)
	if err != nil {
		return fmt.Errorf("compiling internal component patterns: %w", err)
	}
	sink := ingest.NewBusSink(bus, eventSendTimeout)
	parser := bom.NewParser(bom.Options{
		CycloneDXEnabled: cfg.Bom.CycloneDXEnabled,
		ValidateSchema:   cfg.Bom.ValidateSchema,
	})
	proc := ingest.NewProcessor(store, parser, sink, sink,
		ingest.WithRecorder(collector),
		ingest.WithInternalMatcher(internal),
	)

	pool := worker.NewPool(proc, worker.Options{
		Workers:      cfg.Bom.Workers,
		QueueSize:    cfg.Bom.QueueSize,
		OnQueueDepth: collector.SetQueueDepth,
	})
	pool.Start(ctx)

	a := apis.New(store, pool, proc, apis.Options{
		MaxUploadBytes:   cfg.Bom.MaxUploadBytes,
		UploadsPerSecond: cfg.Bom.UploadsPerSecond,
		UploadBurst:      cfg.Bom.UploadBurst,
		Observer:         collector,
	})
	s, err := server.CreateNewServer(a, server.WithMetricsHandler(collector.Handler()))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	s.MountHandlers()

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info().Str("port", cfg.ServerPort).Msg("server started")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			pool.Shutdown(ctx)
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("could not stop server gracefully")
			if err := srv.Close(); err != nil {
				slog.Error().Err(err).Msg("could not stop server")
			}
		}
		if err := pool.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("imports cancelled before the queue drained")
		}
	}

	slog.Info().Msg("server stopped")
	return nil
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	flag.StringVar(&opt.configFile, "config", "", "Path to the config file; built-in defaults when empty")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
