package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	platformgrpc "github.com/louisbranch/estateledger/internal/platform/grpc"
	"github.com/louisbranch/estateledger/internal/platform/id"
	"github.com/louisbranch/estateledger/internal/services/ledger/actor"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/notify"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
)

// target returns the address in args, or the caller when none is given.
func (c *cli) target(args []string, flag string) (account.Address, error) {
	if flag != "" {
		return account.ParseAddress(flag)
	}
	if len(args) > 0 {
		return account.ParseAddress(args[0])
	}
	return c.caller()
}

func (c *cli) walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Fund and inspect native-currency wallets",
	}

	var to string
	deposit := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Credit a wallet with external funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := c.target(nil, to)
			if err != nil {
				return err
			}
			amount, err := c.amount(args[0])
			if err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			balance, err := svc.Deposit(cmd.Context(), addr, amount)
			if err != nil {
				return err
			}
			return c.print(map[string]any{"address": addr.String(), "balance": c.amountView(balance)})
		},
	}
	deposit.Flags().StringVar(&to, "to", "", "wallet to credit (defaults to the caller)")

	cmd.AddCommand(
		deposit,
		&cobra.Command{
			Use:   "balance [address]",
			Short: "Show a wallet balance",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := c.target(args, "")
				if err != nil {
					return err
				}
				svc, _, err := c.ledger()
				if err != nil {
					return err
				}
				balance, err := svc.Balance(cmd.Context(), addr)
				if err != nil {
					return err
				}
				return c.print(map[string]any{"address": addr.String(), "balance": c.amountView(balance)})
			},
		},
	)
	return cmd
}

func (c *cli) actorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actor",
		Short: "Manage actor tokens",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "keygen",
			Short: "Generate an actor signing key pair",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				pub, priv, err := actor.GenerateKey()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.out, "LEDGER_ACTOR_PUBLIC_KEY=%s\nLEDGER_ACTOR_PRIVATE_KEY=%s\n", pub, priv)
				return err
			},
		},
		&cobra.Command{
			Use:   "issue <address>",
			Short: "Issue a token binding an address",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := account.ParseAddress(args[0])
				if err != nil {
					return err
				}
				cfg, err := actor.LoadConfigFromEnv(c.now)
				if err != nil {
					return err
				}
				jti, err := id.NewID()
				if err != nil {
					return err
				}
				token, err := actor.Issue(cfg, addr, jti)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.out, token)
				return err
			},
		},
	)
	return cmd
}

func (c *cli) journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the event journal",
	}

	var (
		after uint64
		limit int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List journal events in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.ledger()
			if err != nil {
				return err
			}
			events, err := store.ListEvents(cmd.Context(), after, limit)
			if err != nil {
				return err
			}
			views := make([]eventView, 0, len(events))
			for _, evt := range events {
				views = append(views, newEventView(evt))
			}
			return c.print(views)
		},
	}
	list.Flags().Uint64Var(&after, "after", 0, "list events after this sequence")
	list.Flags().IntVar(&limit, "limit", 50, "maximum events")

	var secretBytes int
	keygen := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a journal signing secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := integrity.NewSecret(nil, secretBytes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "LEDGER_EVENT_HMAC_KEY=%s\n", secret)
			return err
		},
	}
	keygen.Flags().IntVar(&secretBytes, "bytes", integrity.DefaultSecretBytes, "number of random bytes")

	cmd.AddCommand(
		list,
		keygen,
		&cobra.Command{
			Use:   "verify",
			Short: "Check the journal hash chain and signatures",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, store, err := c.ledger()
				if err != nil {
					return err
				}
				if err := store.VerifyJournal(cmd.Context()); err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.out, "journal ok")
				return err
			},
		},
	)
	return cmd
}

func (c *cli) outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and drain the notification outbox",
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Show outbox queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.ledger()
			if err != nil {
				return err
			}
			s, err := store.NotificationOutboxSummary(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(map[string]any{
				"pending":           s.PendingCount,
				"processing":        s.ProcessingCount,
				"failed":            s.FailedCount,
				"dead":              s.DeadCount,
				"oldest_pending_at": timeView(s.OldestPendingAt),
			})
		},
	}

	var (
		status    string
		listLimit int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List outbox rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.ledger()
			if err != nil {
				return err
			}
			entries, err := store.ListNotificationOutbox(cmd.Context(), status, listLimit)
			if err != nil {
				return err
			}
			type entryView struct {
				Seq           uint64 `json:"seq"`
				Type          string `json:"type"`
				Status        string `json:"status"`
				Attempts      int    `json:"attempts"`
				NextAttemptAt string `json:"next_attempt_at"`
				LastError     string `json:"last_error,omitempty"`
			}
			views := make([]entryView, 0, len(entries))
			for _, e := range entries {
				views = append(views, entryView{
					Seq:           e.Seq,
					Type:          string(e.EventType),
					Status:        e.Status,
					Attempts:      e.AttemptCount,
					NextAttemptAt: timeView(e.NextAttemptAt),
					LastError:     e.LastError,
				})
			}
			return c.print(views)
		},
	}
	list.Flags().StringVar(&status, "status", "", "only rows with this status")
	list.Flags().IntVar(&listLimit, "limit", 50, "maximum rows")

	var processLimit int
	process := &cobra.Command{
		Use:   "process",
		Short: "Deliver one batch of due notifications to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.ledger()
			if err != nil {
				return err
			}
			sink := notify.LogSink{Logger: log.New(c.out, "", 0)}
			dispatcher := notify.NewDispatcher(store, sink, notify.Config{BatchSize: processLimit}, c.now)
			processed, err := dispatcher.ProcessOnce(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(map[string]int{"processed": processed})
		},
	}
	process.Flags().IntVar(&processLimit, "limit", 50, "maximum rows")

	var requeueLimit int
	requeue := &cobra.Command{
		Use:   "requeue",
		Short: "Move dead-lettered notifications back to pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := c.ledger()
			if err != nil {
				return err
			}
			requeued, err := store.RequeueDeadNotifications(cmd.Context(), requeueLimit, c.now())
			if err != nil {
				return err
			}
			return c.print(map[string]int{"requeued": requeued})
		},
	}
	requeue.Flags().IntVar(&requeueLimit, "limit", 50, "maximum rows")

	cmd.AddCommand(summary, list, process, requeue)
	return cmd
}

func (c *cli) healthCmd() *cobra.Command {
	var (
		service string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health <addr>",
		Short: "Wait until a ledger daemon reports SERVING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := platformgrpc.WaitForHealth(ctx, args[0], service, nil); err != nil {
				return err
			}
			_, err := fmt.Fprintf(c.out, "%s serving\n", args[0])
			return err
		},
	}
	cmd.Flags().StringVar(&service, "service", "ledger", "health service name")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait")
	return cmd
}
