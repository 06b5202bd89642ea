package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/grez-lucas/bank-client/internal/bank/tangerine"
	"github.com/grez-lucas/bank-client/internal/export"
)

func newDownloadCommand(g *globals) *cobra.Command {
	var account, from, to string
	var days int
	var stdout bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a QFX statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parsePeriod(from, to, days, time.Now())
			if err != nil {
				return err
			}
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				acct, err := findAccount(ctx, e.client, account)
				if err != nil {
					return nil, err
				}
				out, err := e.client.DownloadOFX(ctx, acct, start, end, !stdout)
				if err != nil {
					return nil, err
				}
				if stdout {
					return map[string]string{"document": out}, nil
				}
				return map[string]string{"path": out}, nil
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account number (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 30, "days back from --to when --from is not given")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the document instead of saving it")

	return cmd
}

func newTransferCommand(g *globals) *cobra.Command {
	var req tangerine.TransferRequest
	var amount string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between your own accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			req.Amount = amt
			if req.AccountID == "" {
				req.AccountID = req.FromAccount
			}
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				return e.client.MoveMoney(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&req.FromAccount, "from", "", "source account number (required)")
	cmd.Flags().StringVar(&req.ToAccount, "to", "", "destination account number (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 100.50 (required)")
	cmd.Flags().StringVar(&req.AccountID, "account-id", "", "account the request is filed under (default --from)")
	cmd.Flags().StringVar(&req.Currency, "currency", "CAD", "currency")
	cmd.Flags().StringVar(&req.When, "when", "NOW", "when to send")
	cmd.Flags().BoolVar(&req.ValidateOnly, "validate-only", false, "validate without submitting")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newEmailTransferCommand(g *globals) *cobra.Command {
	var req tangerine.EmailTransferRequest
	var amount, date string

	cmd := &cobra.Command{
		Use:   "email-transfer",
		Short: "Send an Interac e-Transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			req.Amount = amt

			req.ScheduledDate = time.Now()
			if date != "" {
				if req.ScheduledDate, err = time.ParseInLocation(dateFlagLayout, date, time.Local); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			return g.inSession(cmd, func(ctx context.Context, e *env) (any, error) {
				return e.client.EmailMoney(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&req.SourceAccount, "from", "", "source account number (required)")
	cmd.Flags().StringVar(&req.RecipientSequenceNumber, "recipient", "", "recipient sequence number (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 25.00 (required)")
	cmd.Flags().StringVar(&req.Message, "message", "", "message to the recipient")
	cmd.Flags().StringVar(&req.When, "when", "NOW", "when to send")
	cmd.Flags().StringVar(&date, "date", "", "scheduled date, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&req.ValidateOnly, "validate-only", false, "validate without submitting")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("recipient")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func parseAmount(s string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --amount %q: %w", s, err)
	}
	if !amt.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("--amount must be positive, got %s", s)
	}
	return amt, nil
}

func newExportCommand(g *globals) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save statements of every supported account",
		Long: "Logs in once and saves a QFX statement covering the last TANGERINE_EXPORT_DAYS days for\n" +
			"every account that supports statements. With --schedule (or TANGERINE_EXPORT_SCHEDULE)\n" +
			"it keeps running and exports on that cron schedule.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			exp := export.New(e.client, e.cfg.DownloadDir, e.cfg.ExportDays, export.WithLogger(e.logger))
			if schedule == "" {
				schedule = e.cfg.ExportSchedule
			}
			if schedule != "" {
				return exp.Schedule(cmd.Context(), schedule)
			}

			results, err := exp.Run(cmd.Context())
			if printErr := printJSON(cmd.OutOrStdout(), exportReport(results)); printErr != nil && err == nil {
				err = printErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule, e.g. \"0 6 * * *\"")

	return cmd
}

type exportEntry struct {
	Account string                `json:"account"`
	Type    tangerine.AccountType `json:"type"`
	Path    string                `json:"path,omitempty"`
	Skipped bool                  `json:"skipped,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func exportReport(results []export.Result) []exportEntry {
	out := make([]exportEntry, 0, len(results))
	for _, r := range results {
		entry := exportEntry{Account: r.Account, Type: r.Type, Path: r.Path, Skipped: r.Skipped}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		}
		out = append(out, entry)
	}
	return out
}
