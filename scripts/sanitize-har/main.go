// sanitize-har redacts credentials, tokens and account numbers from a HAR
// recording so it can be committed as a replay fixture.
//
// Usage:
//
//	go run ./scripts/sanitize-har -scenario=login-success
//	go run ./scripts/sanitize-har -input=recording.har.json -output=sanitized.har.json -dry-run
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grez-lucas/bank-client/internal/testutil"
)

type options struct {
	input  string
	output string
	dryRun bool
}

func main() {
	var opts options
	scenario := flag.String("scenario", "", "recording under internal/bank/tangerine/testdata/recordings")
	flag.StringVar(&opts.input, "input", "", "HAR file to sanitize")
	flag.StringVar(&opts.output, "output", "", "where to write the result (default: overwrite the input)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "list redactions without writing")
	flag.Parse()

	if *scenario != "" {
		opts.input = filepath.Join("internal", "bank", "tangerine", "testdata", "recordings", *scenario+".har.json")
	}
	if opts.output == "" {
		opts.output = opts.input
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "sanitize-har:", err)
		flag.Usage()
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.input == "" {
		return errors.New("one of -scenario or -input is required")
	}

	har, err := testutil.LoadHAR(opts.input)
	if err != nil {
		return err
	}
	sanitized := testutil.SanitizeHAR(har)

	redactions := testutil.Redactions(har, sanitized)
	fmt.Printf("%s: %d entries, %d redactions\n", opts.input, len(har.Entries), len(redactions))
	if opts.dryRun {
		for _, r := range redactions {
			fmt.Println("  " + r.String())
		}
		return nil
	}

	if err := testutil.SaveHAR(opts.output, sanitized); err != nil {
		return err
	}
	fmt.Println("wrote", opts.output)
	return nil
}
