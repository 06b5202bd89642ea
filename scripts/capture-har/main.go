// capture-har logs in with the form login, lists the accounts and logs out,
// recording every exchange as a HAR file for replay tests. The recording is
// sanitized before it is written unless -raw is given.
//
// Usage:
//
//	go run ./scripts/capture-har -scenario=login-success
//	go run ./scripts/capture-har -output=/tmp/raw.har.json -raw
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/grez-lucas/bank-client/internal/bank"
	"github.com/grez-lucas/bank-client/internal/bank/tangerine"
	"github.com/grez-lucas/bank-client/internal/config"
	"github.com/grez-lucas/bank-client/internal/logging"
	"github.com/grez-lucas/bank-client/internal/secrets"
	"github.com/grez-lucas/bank-client/internal/testutil"
)

func main() {
	_ = godotenv.Load()

	bankCode := flag.String("bank", "tangerine", "Bank code: tangerine")
	scenario := flag.String("scenario", "login-success", "Scenario name")
	outputPath := flag.String("output", "", "Output path (default: internal/bank/{bank}/testdata/recordings/{scenario}.har.json)")
	raw := flag.Bool("raw", false, "Write the recording without sanitizing it")
	flag.Parse()

	out := *outputPath
	if out == "" {
		out = filepath.Join("internal", "bank", *bankCode, "testdata", "recordings", *scenario+".har.json")
	}

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	rec := testutil.NewRecorder(nil)
	sec := secrets.Chain{
		&secrets.Static{Cred: bank.Credential{Identifier: cfg.Username, Secret: cfg.PIN}, DefaultAnswer: cfg.ChallengeAnswer},
		secrets.NewPrompt(),
	}
	client, err := tangerine.NewClient(sec,
		tangerine.WithEndpoints(cfg.Endpoints()),
		tangerine.WithLocale(cfg.Locale),
		tangerine.WithHTTPClient(&http.Client{Transport: rec, Timeout: cfg.Timeout}),
		tangerine.WithLogger(logger),
	)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	runErr := client.WithSession(context.Background(), func(ctx context.Context) error {
		accounts, err := client.ListAccounts(ctx)
		if err != nil {
			return err
		}
		logger.Info("listed accounts", zap.Int("count", len(accounts)))
		return nil
	})
	if runErr != nil {
		// Failed logins are worth keeping too.
		logger.Warn("session failed", zap.Error(runErr))
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}
	if err := rec.Save(out, *raw); err != nil {
		fmt.Printf("Error saving HAR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Recorded %d entries to %s\n", len(rec.HAR().Entries), out)
	if *raw {
		fmt.Println("Raw recording: run scripts/sanitize-har before committing!")
	}
}
