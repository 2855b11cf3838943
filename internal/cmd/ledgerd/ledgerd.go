// Package ledgerd parses daemon command flags and launches the ledger runtime.
package ledgerd

import (
	"context"
	"flag"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/estateledger/internal/platform/cmd"
	ledgerapp "github.com/louisbranch/estateledger/internal/services/ledger/app"
)

// Config holds daemon command configuration.
type Config struct {
	HTTPAddr     string        `env:"LEDGER_HTTP_ADDR" envDefault:":8095"`
	HealthAddr   string        `env:"LEDGER_HEALTH_ADDR" envDefault:":8096"`
	DBPath       string        `env:"LEDGER_DB_PATH" envDefault:"data/ledger.db"`
	Decimals     int           `env:"LEDGER_CURRENCY_DECIMALS" envDefault:"9"`
	AllowOrigins []string      `env:"LEDGER_HTTP_ALLOW_ORIGINS" envSeparator:","`
	OutboxBatch  int           `env:"LEDGER_OUTBOX_BATCH" envDefault:"50"`
	PollInterval time.Duration `env:"LEDGER_OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	FeedSize     int           `env:"LEDGER_FEED_SIZE" envDefault:"200"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	origins := strings.Join(cfg.AllowOrigins, ",")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The query API listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "The gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The ledger SQLite database path")
	fs.IntVar(&cfg.Decimals, "decimals", cfg.Decimals, "Display precision of amounts")
	fs.StringVar(&origins, "allow-origins", origins, "Comma-separated CORS origins")
	fs.IntVar(&cfg.OutboxBatch, "outbox-batch", cfg.OutboxBatch, "Notification outbox batch size")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Notification outbox poll interval")
	fs.IntVar(&cfg.FeedSize, "feed-size", cfg.FeedSize, "Recent notifications kept for the feed")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.AllowOrigins = splitOrigins(origins)
	return cfg, nil
}

func splitOrigins(raw string) []string {
	var out []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// Run starts the ledger daemon.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedgerd, func(context.Context) error {
		return ledgerapp.Run(ctx, ledgerapp.RuntimeConfig{
			HTTPAddr:     cfg.HTTPAddr,
			HealthAddr:   cfg.HealthAddr,
			DBPath:       cfg.DBPath,
			Decimals:     int32(cfg.Decimals),
			AllowOrigins: cfg.AllowOrigins,
			OutboxBatch:  cfg.OutboxBatch,
			PollInterval: cfg.PollInterval,
			FeedSize:     cfg.FeedSize,
		})
	})
}
