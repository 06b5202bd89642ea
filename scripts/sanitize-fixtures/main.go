// sanitize-fixtures redacts personal data from captured fixtures in place:
// HTML pages, JSON API responses and QFX statements.
//
// Usage:
//
//	go run ./scripts/sanitize-fixtures -bank=tangerine [-dry-run]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grez-lucas/bank-client/internal/testutil"
)

var sanitizePatterns = []struct {
	Pattern     *regexp.Regexp
	Replacement string
	Description string
}{
	// Account and client numbers
	{
		regexp.MustCompile(`\b\d{9,12}\b`),
		`0000000000`,
		"Account or client number",
	},
	{
		regexp.MustCompile(`\b\d{4}[X*]{4,8}\d{4}\b`),
		`0000XXXXXXXX0000`,
		"Masked card number",
	},

	{
		regexp.MustCompile(`(?i)"(first_name|last_name|email|display_name|nickname|account_nick_name|client_number)"\s*:\s*"[^"]*"`),
		`"$1":"REDACTED"`,
		"Personal JSON field",
	},
	{
		regexp.MustCompile(`(?i)(Welcome|Bienvenue),?\s+[A-ZÀ-Ý][a-zà-ÿ]+(\s+[A-ZÀ-Ý][a-zà-ÿ]+)?`),
		"$1 FIRSTNAME",
		"Greeting with name",
	},
	{
		regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		"user@example.com",
		"Email address",
	},

	// Session tokens / CSRF tokens
	{
		regexp.MustCompile(`(?i)(token|csrf|session|jsessionid)["\s:=]+["']?[a-zA-Z0-9_.-]{20,}["']?`),
		`$1="REDACTED"`,
		"Token",
	},
	{
		regexp.MustCompile(`(?i)document\.cookie\s*=\s*["'][^"']+["']`),
		`document.cookie="REDACTED"`,
		"Cookie",
	},
}

func main() {
	bankCode := flag.String("bank", "", "Bank code: tangerine")
	dryRun := flag.Bool("dry-run", false, "Show what would be changed without modifying files")
	flag.Parse()

	if *bankCode == "" {
		fmt.Println("Usage: go run ./scripts/sanitize-fixtures -bank=tangerine [-dry-run]")
		os.Exit(1)
	}

	fixturesDir := filepath.Join("internal", "bank", *bankCode, "testdata", "fixtures")

	var files []string
	for _, ext := range []string{"*.html", "*.json", "*.qfx", "*.QFX", "*.ofx"} {
		matches, err := filepath.Glob(filepath.Join(fixturesDir, ext))
		if err != nil {
			fmt.Printf("Bad pattern %s: %v\n", ext, err)
			os.Exit(1)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		fmt.Printf("No fixtures found in %s\n", fixturesDir)
		os.Exit(1)
	}

	fmt.Printf("Sanitizing fixtures for %s\n", *bankCode)
	if *dryRun {
		fmt.Println("    (DRY RUN - no files will be modified)")
	}
	fmt.Println()

	for _, file := range files {
		sanitizeFile(file, *dryRun)
	}

	fmt.Println()
	fmt.Println("Sanitization complete!")
	if *dryRun {
		fmt.Println("    Run without -dry-run to apply changes")
	}
}

func sanitizeFile(path string, dryRun bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", path, err)
		return
	}

	original := string(content)
	sanitized := original
	var changes []string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".qfx", ".ofx":
		sanitized = testutil.SanitizeOFX(original)
		if sanitized != original {
			changes = append(changes, "  - OFX account and payee tags")
		}
	default:
		for _, pattern := range sanitizePatterns {
			if matches := pattern.Pattern.FindAllString(sanitized, -1); len(matches) > 0 {
				sanitized = pattern.Pattern.ReplaceAllString(sanitized, pattern.Replacement)
				changes = append(changes, fmt.Sprintf("  - %s: %d matched", pattern.Description, len(matches)))
			}
		}
	}

	filename := filepath.Base(path)
	if len(changes) == 0 {
		fmt.Printf("%s: No sensitive data found\n", filename)
		return
	}

	fmt.Printf("%s: Found sensitive data\n", filename)
	for _, change := range changes {
		fmt.Println(change)
	}

	if !dryRun {
		if err := os.WriteFile(path, []byte(sanitized), 0o644); err != nil {
			fmt.Printf("    Error writing %s: %v\n", path, err)
		} else {
			fmt.Println("    Sanitized and saved")
		}
	}
}
