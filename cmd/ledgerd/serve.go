package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger/api"
	"github.com/tokenvault/ledger/app"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/events"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"
)

func serveAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	var reg *prometheus.Registry
	if cfg.API.Metrics {
		reg = prometheus.NewRegistry()
	}
	n, err := openNodeWithConfig(ctx, cfg, registerer(reg))
	if err != nil {
		return err
	}
	defer n.Close()

	if ctx.IsSet(apiAddrFlag.Name) {
		cfg.API.Addr = ctx.String(apiAddrFlag.Name)
	}
	if ctx.IsSet(apiCorsFlag.Name) {
		cfg.API.CORS = ctx.String(apiCorsFlag.Name)
	}
	if ctx.IsSet(tickIntervalFlag.Name) {
		cfg.Ticker.Interval = ctx.Duration(tickIntervalFlag.Name)
	}
	if n.ledger.ChainID() == "" {
		return errors.Wrap(errors.ErrInvalidState, "chain not initialized, run init first")
	}

	sinks := events.MultiSink{events.NewLogSink(n.logger)}
	var hub *events.Hub
	if cfg.API.Events {
		hub = events.NewHub(n.logger)
		defer hub.Close()
		sinks = append(sinks, hub)
	}
	n.ledger.WithSink(sinks)

	opts := api.Options{
		AllowedOrigins:  cfg.API.CORS,
		EnableReqLogger: cfg.API.EnableLogs,
		Registry:        reg,
		Logger:          n.logger,
	}
	if hub != nil {
		opts.Events = hub
	}
	handler, err := api.New(n.ledger, opts)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(sigCtx, n.logger, cfg, handler, n.ledger)
}

// registerer avoids passing a typed nil registry as an interface.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

// serve runs the API server and the ticker until ctx is cancelled or one of
// them fails.
func serve(ctx context.Context, logger log.Logger, cfg *Config, handler http.Handler, l *app.Ledger) error {
	listener, err := net.Listen("tcp", cfg.API.Addr)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "listen api addr: %s", err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server started", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "serve api")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Ticker.Interval > 0 {
		g.Go(func() error {
			return runTicker(gctx, logger, cfg.Ticker.Interval, l)
		})
	}
	return g.Wait()
}

// runTicker ticks the ledger at every interval. A clock that went backwards
// is reported and the tick skipped.
func runTicker(ctx context.Context, logger log.Logger, interval time.Duration, l *app.Ledger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := l.Tick(ctx, nowFunc()); err != nil {
				if errors.ErrTiming.Is(err) {
					logger.Error("tick skipped", "err", err)
					continue
				}
				return err
			}
		}
	}
}
