// Package export saves QFX statements of every supported account, once or on
// a cron schedule.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/grez-lucas/bank-client/internal/bank/tangerine"
)

// StatementClient is the part of tangerine.Client the exporter needs.
type StatementClient interface {
	WithSession(ctx context.Context, fn func(ctx context.Context) error) error
	ListAccounts(ctx context.Context) ([]tangerine.Account, error)
	FetchStatement(ctx context.Context, account tangerine.Account, start, end time.Time) (*tangerine.Statement, error)
}

var _ StatementClient = (*tangerine.Client)(nil)

// Result is the outcome for one account.
type Result struct {
	Account string
	Type    tangerine.AccountType
	Path    string
	Skipped bool
	Err     error
}

// Exporter downloads the last Days days of statements into Dir.
type Exporter struct {
	client StatementClient
	dir    string
	days   int
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Exporter)

func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func New(client StatementClient, dir string, days int, opts ...Option) *Exporter {
	e := &Exporter{
		client: client,
		dir:    dir,
		days:   days,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Period is the statement window ending today.
func (e *Exporter) Period() (start, end time.Time) {
	now := e.now()
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return end.AddDate(0, 0, -e.days), end
}

// Run logs in once and saves a statement per supported account. A failing
// account does not stop the others; their errors are joined.
func (e *Exporter) Run(ctx context.Context) ([]Result, error) {
	if e.dir != "" {
		if err := os.MkdirAll(e.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export dir: %w", err)
		}
	}
	start, end := e.Period()

	var results []Result
	err := e.client.WithSession(ctx, func(ctx context.Context) error {
		accounts, err := e.client.ListAccounts(ctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}

		var errs []error
		for _, acct := range accounts {
			res := e.exportAccount(ctx, acct, start, end)
			if res.Err != nil {
				errs = append(errs, fmt.Errorf("account %s: %w", acct.Number, res.Err))
			}
			results = append(results, res)
		}
		return errors.Join(errs...)
	})
	return results, err
}

func (e *Exporter) exportAccount(ctx context.Context, acct tangerine.Account, start, end time.Time) Result {
	res := Result{Account: acct.Number, Type: acct.Type}
	log := e.logger.With(zap.String("account", acct.Number), zap.String("type", string(acct.Type)))

	if !tangerine.SupportsStatements(acct.Type) {
		log.Warn("skipping account, statements not supported")
		res.Skipped = true
		return res
	}

	st, err := e.client.FetchStatement(ctx, acct, start, end)
	if err != nil {
		log.Error("statement download failed", zap.Error(err))
		res.Err = err
		return res
	}
	path, err := st.Save(e.dir)
	if err != nil {
		res.Err = err
		return res
	}

	log.Info("exported statement", zap.String("path", path))
	res.Path = path
	return res
}

// Schedule runs the export on the cron spec until ctx is done, then waits for
// a running export to finish. Overlapping runs are skipped.
func (e *Exporter) Schedule(ctx context.Context, spec string) error {
	logger := cronLogger{e.logger.Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	if _, err := c.AddFunc(spec, func() { e.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}

	e.logger.Info("scheduled statement export", zap.String("schedule", spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (e *Exporter) runScheduled(ctx context.Context) {
	results, err := e.Run(ctx)
	saved := 0
	for _, r := range results {
		if r.Path != "" {
			saved++
		}
	}
	if err != nil {
		e.logger.Error("scheduled export failed", zap.Int("saved", saved), zap.Error(err))
		return
	}
	e.logger.Info("scheduled export done", zap.Int("saved", saved))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
