// Package ledger implements the ledger command-line client over a local
// SQLite ledger.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	entrypoint "github.com/louisbranch/estateledger/internal/platform/cmd"
	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/platform/errors/i18n"
	"github.com/louisbranch/estateledger/internal/platform/money"
	"github.com/louisbranch/estateledger/internal/services/ledger/actor"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/service"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/sqlite"
)

// Config holds CLI defaults read from the environment.
type Config struct {
	DBPath   string `env:"LEDGER_DB_PATH" envDefault:"data/ledger.db"`
	Decimals int    `env:"LEDGER_CURRENCY_DECIMALS" envDefault:"9"`
	Caller   string `env:"LEDGER_CALLER"`
	Token    string `env:"LEDGER_ACTOR_TOKEN"`
	Locale   string `env:"LEDGER_LOCALE" envDefault:"en-US"`
}

// ParseConfig loads CLI defaults from .env and the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type cli struct {
	cfg Config
	out io.Writer
	now func() time.Time
	// keyring overrides the environment keyring.
	keyring *integrity.Keyring

	store *sqlite.Store
	svc   *service.Service
}

// NewRootCommand builds the command tree writing results to out.
func NewRootCommand(cfg Config, out io.Writer) *cobra.Command {
	return newCLI(cfg, out).rootCommand()
}

func newCLI(cfg Config, out io.Writer) *cli {
	return &cli{cfg: cfg, out: out, now: time.Now}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           entrypoint.ServiceLedger,
		Short:         "Property listing registry and creator tipping ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.DBPath, "db", c.cfg.DBPath, "ledger SQLite database path")
	flags.StringVar(&c.cfg.Caller, "as", c.cfg.Caller, "caller address when actor tokens are not configured")
	flags.StringVar(&c.cfg.Token, "token", c.cfg.Token, "actor token binding the caller address")
	flags.IntVar(&c.cfg.Decimals, "decimals", c.cfg.Decimals, "fractional digits of whole-unit amounts")
	flags.StringVar(&c.cfg.Locale, "locale", c.cfg.Locale, "locale of error messages")

	root.AddCommand(
		c.propertyCmd(),
		c.platformCmd(),
		c.creatorCmd(),
		c.donateCmd(),
		c.donationCmd(),
		c.walletCmd(),
		c.actorCmd(),
		c.journalCmd(),
		c.outboxCmd(),
		c.healthCmd(),
	)
	return root
}

// ledger opens the store on first use.
func (c *cli) ledger() (*service.Service, *sqlite.Store, error) {
	if c.svc != nil {
		return c.svc, c.store, nil
	}
	keyring := c.keyring
	if keyring == nil {
		var err error
		if keyring, err = integrity.KeyringFromEnv(); err != nil {
			return nil, nil, fmt.Errorf("load event keyring: %w", err)
		}
	}
	if dir := filepath.Dir(c.cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create ledger storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(c.cfg.DBPath, keyring, sqlite.WithClock(c.now))
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	c.store = store
	c.svc = service.New(store, service.WithClock(c.now))
	return c.svc, c.store, nil
}

func (c *cli) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store, c.svc = nil, nil
	return err
}

// caller resolves who is acting. With an actor public key configured only a
// verified token is accepted; otherwise --as names the caller.
func (c *cli) caller() (account.Address, error) {
	actorCfg, err := actor.LoadConfigFromEnv(c.now)
	if err != nil {
		return "", err
	}
	if actorCfg.Enabled() {
		claims, err := actor.Verify(c.cfg.Token, actorCfg)
		if err != nil {
			return "", err
		}
		return claims.Address, nil
	}
	if strings.TrimSpace(c.cfg.Token) != "" {
		return "", errors.New("actor tokens require LEDGER_ACTOR_PUBLIC_KEY")
	}
	if strings.TrimSpace(c.cfg.Caller) == "" {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidInput, "caller address is required", map[string]string{"Field": "as"})
	}
	return account.ParseAddress(c.cfg.Caller)
}

func (c *cli) amount(raw string) (uint64, error) {
	value, ok := money.Parse(strings.TrimSpace(raw), int32(c.cfg.Decimals))
	if !ok {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidInput, fmt.Sprintf("invalid amount %q", raw), map[string]string{"Field": "amount"})
	}
	return value, nil
}

func (c *cli) print(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.out, string(encoded))
	return err
}

// describeError renders err for people, localizing coded errors.
func describeError(err error, locale string) string {
	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		return err.Error()
	}
	var metadata map[string]string
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		metadata = domainErr.Metadata
	}
	return fmt.Sprintf("%s: %s", code, i18n.GetCatalog(locale).Format(string(code), metadata))
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cfg, err := ParseConfig()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	c := newCLI(cfg, stdout)
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		_ = c.close()
		fmt.Fprintf(stderr, "error: %s\n", describeError(err, c.cfg.Locale))
		return 1
	}
	return 0
}
