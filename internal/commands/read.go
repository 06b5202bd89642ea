package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grez-lucas/bank-client/internal/bank/tangerine"
)

const dateFlagLayout = "2006-01-02"

func newMeCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the customer profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				return e.client.Me(ctx)
			})
		},
	}
}

func newAccountsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				return e.client.ListAccounts(ctx)
			})
		},
	}
}

func newAccountCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "account <number>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				return e.client.GetAccount(ctx, args[0])
			})
		},
	}
}

func newTransactionsCommand(g *globals) *cobra.Command {
	var accounts []string
	var from, to string
	var days int

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List posted transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parsePeriod(from, to, days, time.Now())
			if err != nil {
				return err
			}
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				ids := accounts
				if len(ids) == 0 {
					all, err := e.client.ListAccounts(ctx)
					if err != nil {
						return nil, fmt.Errorf("list accounts: %w", err)
					}
					for _, a := range all {
						ids = append(ids, a.Number)
					}
				}
				return e.client.ListTransactions(ctx, ids, start, end)
			})
		},
	}

	cmd.Flags().StringSliceVar(&accounts, "account", nil, "account number (repeatable, default all)")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 30, "days back from --to when --from is not given")

	return cmd
}

func newPendingCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pending transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				return e.client.ListPendingTransactions(ctx)
			})
		},
	}
}

func newRecipientsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "recipients",
		Short: "List Interac e-Transfer recipients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				return e.client.ListEmailRecipients(ctx)
			})
		},
	}
}

func newMoveMoneyAccountsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "move-money-accounts",
		Short: "List accounts usable for internal transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				return e.client.ListMoveMoneyAccounts(ctx)
			})
		},
	}
}

// parsePeriod resolves --from/--to/--days. to defaults to today and from to
// days before to.
func parsePeriod(from, to string, days int, now time.Time) (time.Time, time.Time, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if to != "" {
		t, err := time.ParseInLocation(dateFlagLayout, to, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		end = t
	}

	if from == "" {
		if days <= 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("--days must be positive, got %d", days)
		}
		return end.AddDate(0, 0, -days), end, nil
	}
	start, err := time.ParseInLocation(dateFlagLayout, from, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from %s is after --to %s", from, end.Format(dateFlagLayout))
	}
	return start, end, nil
}

func findAccount(ctx context.Context, c *tangerine.Client, number string) (tangerine.Account, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return tangerine.Account{}, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.Number == number {
			return a, nil
		}
	}
	return tangerine.Account{}, fmt.Errorf("account %s not found", number)
}
