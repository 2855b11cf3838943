// Package app wires the ledger daemon: SQLite store, query API, gRPC health
// endpoint, and the notification dispatcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/estateledger/internal/platform/grpc"
	"github.com/louisbranch/estateledger/internal/platform/timeouts"
	httpapi "github.com/louisbranch/estateledger/internal/services/ledger/api/http"
	"github.com/louisbranch/estateledger/internal/services/ledger/notify"
	"github.com/louisbranch/estateledger/internal/services/ledger/service"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/sqlite"
)

// RuntimeConfig controls daemon startup.
type RuntimeConfig struct {
	HTTPAddr     string
	HealthAddr   string
	DBPath       string
	Decimals     int32
	AllowOrigins []string
	OutboxBatch  int
	PollInterval time.Duration
	FeedSize     int
	// Keyring signs journal events. Nil loads it from the environment.
	Keyring *integrity.Keyring
}

const (
	defaultHTTPAddr   = ":8095"
	defaultHealthAddr = ":8096"
	healthService     = "ledger"
	defaultDBPath     = "data/ledger.db"
	defaultFeedSize   = 200
)

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if strings.TrimSpace(cfg.HealthAddr) == "" {
		cfg.HealthAddr = defaultHealthAddr
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.FeedSize <= 0 {
		cfg.FeedSize = defaultFeedSize
	}
	return cfg
}

// runtime holds the assembled daemon components.
type runtime struct {
	store      *sqlite.Store
	handler    http.Handler
	dispatcher *notify.Dispatcher
	feed       *notify.MemorySink
}

func build(cfg RuntimeConfig) (*runtime, error) {
	keyring := cfg.Keyring
	if keyring == nil {
		var err error
		if keyring, err = integrity.KeyringFromEnv(); err != nil {
			return nil, fmt.Errorf("load event keyring: %w", err)
		}
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.DBPath, keyring)
	if err != nil {
		return nil, fmt.Errorf("open ledger sqlite store: %w", err)
	}

	feed := notify.NewMemorySink(cfg.FeedSize)
	sink := notify.Fanout{notify.LogSink{}, feed}
	dispatcher := notify.NewDispatcher(store, sink, notify.Config{
		BatchSize:    cfg.OutboxBatch,
		PollInterval: cfg.PollInterval,
	}, nil)
	handler := httpapi.NewHandler(service.New(store), httpapi.Options{
		Decimals:     cfg.Decimals,
		AllowOrigins: cfg.AllowOrigins,
		Feed:         feed,
	})
	return &runtime{store: store, handler: handler, dispatcher: dispatcher, feed: feed}, nil
}

// Run serves the query API and drains the notification outbox until ctx is
// canceled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()

	rt, err := build(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.store.Close(); closeErr != nil {
			log.Printf("close ledger sqlite store: %v", closeErr)
		}
	}()

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	server := &http.Server{
		Handler:           rt.handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http serve: %v", err)
		}
	}()

	healthServer, err := platformgrpc.NewHealthServer(cfg.HealthAddr, healthService)
	if err != nil {
		return err
	}
	healthCtx, stopHealth := context.WithCancel(context.Background())
	healthErr := make(chan error, 1)
	go func() {
		healthErr <- healthServer.Serve(healthCtx)
	}()
	defer func() {
		healthServer.SetServing(false)
		stopHealth()
		if err := <-healthErr; err != nil {
			log.Printf("health serve: %v", err)
		}
	}()

	log.Printf("ledger query API listening at %v", listener.Addr())
	log.Printf("ledger health listening at %v", healthServer.Addr())
	healthServer.SetServing(true)
	return rt.dispatcher.Run(ctx)
}
