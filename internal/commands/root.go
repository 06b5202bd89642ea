package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grez-lucas/bank-client/internal/bank"
	"github.com/grez-lucas/bank-client/internal/bank/tangerine"
	"github.com/grez-lucas/bank-client/internal/browser"
	"github.com/grez-lucas/bank-client/internal/buildinfo"
	"github.com/grez-lucas/bank-client/internal/config"
	"github.com/grez-lucas/bank-client/internal/logging"
	"github.com/grez-lucas/bank-client/internal/secrets"
)

// globals are the persistent flags shared by every command.
type globals struct {
	configDir   string
	logLevel    string
	logFormat   string
	browser     bool
	secretsFile string
}

// env is what a command needs once config is loaded.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	client *tangerine.Client
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "tangerine",
		Short:   "Tangerine online banking from the command line",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configDir, "config-dir", ".", "directory holding an optional .env file")
	flags.StringVar(&g.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flags.StringVar(&g.logFormat, "log-format", "", "log format json or console (overrides LOG_FORMAT)")
	flags.BoolVar(&g.browser, "browser", false, "log in through a browser window")
	flags.StringVar(&g.secretsFile, "secrets-file", "", "YAML secrets file (overrides TANGERINE_SECRETS_FILE)")

	rootCmd.AddCommand(
		newMeCommand(g),
		newAccountsCommand(g),
		newAccountCommand(g),
		newTransactionsCommand(g),
		newPendingCommand(g),
		newRecipientsCommand(g),
		newMoveMoneyAccountsCommand(g),
		newDownloadCommand(g),
		newTransferCommand(g),
		newEmailTransferCommand(g),
		newExportCommand(g),
		newVersionCommand(),
	)

	return rootCmd
}

// setup loads config, builds the logger and a client for cmd.
func (g *globals) setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(g.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if g.secretsFile != "" {
		cfg.SecretsFile = g.secretsFile
	}
	if g.browser {
		cfg.BrowserLogin = true
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	sec := secretProvider(cfg, cmd)
	opts := []tangerine.Option{
		tangerine.WithEndpoints(cfg.Endpoints()),
		tangerine.WithLocale(cfg.Locale),
		tangerine.WithUserAgent(cfg.UserAgent),
		tangerine.WithTimeout(cfg.Timeout),
		tangerine.WithDownloadDir(cfg.DownloadDir),
		tangerine.WithLogger(logger),
	}
	if cfg.BrowserLogin {
		opts = append(opts, tangerine.WithAuthenticator(browser.NewAuthenticator(cfg.Endpoints(),
			browser.WithSecrets(sec),
			browser.WithLocale(cfg.Locale),
			browser.WithLaunchConfig(browser.LaunchConfig{Bin: cfg.BrowserBin}),
			browser.WithTimeout(cfg.BrowserTimeout),
			browser.WithLogger(logger),
		)))
	}

	client, err := tangerine.NewClient(sec, opts...)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, client: client}, nil
}

// secretProvider asks the secrets file first, then the environment, then
// the terminal.
func secretProvider(cfg *config.Config, cmd *cobra.Command) bank.SecretProvider {
	var chain secrets.Chain
	if cfg.SecretsFile != "" {
		chain = append(chain, &secrets.File{Path: cfg.SecretsFile})
	}
	chain = append(chain,
		&secrets.Static{
			Cred:          bank.Credential{Identifier: cfg.Username, Secret: cfg.PIN},
			DefaultAnswer: cfg.ChallengeAnswer,
		},
		&secrets.Prompt{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()},
	)
	return chain
}

// inSession runs fn inside one logged-in session and prints its result as
// JSON.
func (g *globals) inSession(cmd *cobra.Command, fn func(ctx context.Context, e *env) (any, error)) error {
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	var out any
	err = e.client.WithSession(cmd.Context(), func(ctx context.Context) error {
		var err error
		out, err = fn(ctx, e)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"version": buildinfo.Version,
				"commit":  buildinfo.Commit,
				"date":    buildinfo.Date,
			})
		},
	}
}
