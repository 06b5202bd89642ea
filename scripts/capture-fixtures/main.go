// capture-fixtures opens a visible browser on the Tangerine login and saves
// the HTML of each login page you walk through as a test fixture. After each
// capture it reports which known selectors the page (or one of its iframes)
// contains.
//
// Usage:
//
//	go run ./scripts/capture-fixtures -bank=tangerine
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
	"github.com/joho/godotenv"

	"github.com/grez-lucas/bank-client/internal/bank/tangerine"
	"github.com/grez-lucas/bank-client/internal/browser"
)

// Pages to capture for each bank
var capturePages = []PageCapture{
	{Name: "login-ok", Instructions: "Wait for the login page to load (don't log in yet)"},
	{Name: "login-acn-error", Instructions: "Enter an INVALID client number and submit"},
	{Name: "login-pin-error", Instructions: "Enter a valid client number and an INVALID PIN"},
	{Name: "login-challenge", Instructions: "Trigger a security question (or skip)"},
	{Name: "session-timeout", Instructions: "Leave a logged-in tab idle until it times out (or skip)"},
}

type PageCapture struct {
	Name         string
	Instructions string
}

type selectorProbe struct {
	Name     string
	Selector string
}

var tangerineProbes = []selectorProbe{
	{"Client number input", tangerine.SelectorIdentifierInput},
	{"Error banner", tangerine.SelectorLoginError},
	{"Error code", tangerine.SelectorLoginErrorCode},
	{"Error message", tangerine.SelectorLoginErrorMessage},
	{"Session timeout", tangerine.SelectorSessionExpired},
}

func main() {
	_ = godotenv.Load()

	bankCode := flag.String("bank", "tangerine", "Bank code: tangerine")
	outputDir := flag.String("output", "", "Output directory (default: internal/bank/{bank}/testdata/fixtures)")
	chromeBin := flag.String("chrome", os.Getenv("TANGERINE_BROWSER_BIN"), "Chrome executable (default: let rod find one)")
	flag.Parse()

	if *bankCode != "tangerine" {
		fmt.Printf("Unsupported bank %q\n", *bankCode)
		os.Exit(1)
	}

	outDir := *outputDir
	if outDir == "" {
		outDir = filepath.Join("internal", "bank", *bankCode, "testdata", "fixtures")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bank:   %s\n", strings.ToUpper(*bankCode))
	fmt.Printf("Output: %s\n\n", outDir)

	b, err := browser.Launch(browser.LaunchConfig{Bin: *chromeBin})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer b.MustClose()

	page, err := stealth.Page(b)
	if err != nil {
		fmt.Printf("Error opening page: %v\n", err)
		os.Exit(1)
	}
	loginURL := tangerine.DefaultEndpoints().LoginPageURL(tangerine.DefaultLocale)
	if err := page.Navigate(loginURL); err != nil {
		fmt.Printf("Error opening %s: %v\n", loginURL, err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Instructions:")
	fmt.Println("   - A browser window has opened on the login page")
	fmt.Println("   - Press ENTER after completing each step")
	fmt.Println("   - Type 'skip' to skip a page, 'quit' to exit")
	fmt.Println()

	for _, capture := range capturePages {
		fmt.Println("----------------------------------------------------------------")
		fmt.Printf("Capturing: %s.html\n", capture.Name)
		fmt.Printf("Instructions: %s\n", capture.Instructions)
		fmt.Print("   Press ENTER when ready (or 'skip'/'quit'): ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))

		if input == "quit" {
			fmt.Println("\nExiting...")
			break
		}
		if input == "skip" {
			fmt.Printf("   Skipped %s\n\n", capture.Name)
			continue
		}

		if err := browser.WaitForIFrames(page); err != nil {
			fmt.Printf("   Warning: page did not settle: %v\n", err)
		}
		time.Sleep(1 * time.Second)

		screenshotPath := filepath.Join(outDir, capture.Name+".png")
		if buf, err := page.Screenshot(false, nil); err == nil {
			if err := os.WriteFile(screenshotPath, buf, 0o644); err != nil {
				fmt.Printf("   Error saving screenshot: %v\n", err)
			} else {
				fmt.Printf("   Screenshot: %s\n", screenshotPath)
			}
		}

		probe(page)

		html, iframeCount, err := inlineIframesAndCapture(page)
		if err != nil {
			fmt.Printf("   Error capturing HTML: %v\n\n", err)
			continue
		}
		if iframeCount > 0 {
			fmt.Printf("   Inlined %d iframe(s)\n", iframeCount)
		}

		htmlPath := filepath.Join(outDir, capture.Name+".html")
		if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
			fmt.Printf("   Error saving HTML: %v\n\n", err)
			continue
		}

		info, err := page.Info()
		if err == nil {
			fmt.Printf("   Saved: %s (%s)\n\n", htmlPath, info.URL)
		}
	}

	fmt.Println("================================================================")
	fmt.Println("Capture complete. Sanitize before committing:")
	fmt.Println("   go run ./scripts/sanitize-fixtures -bank=" + *bankCode)
}

// probe prints which known selectors are present on the page.
func probe(page *rod.Page) {
	for _, p := range tangerineProbes {
		mark := "-"
		if browser.FindInFrames(page, p.Selector) != nil {
			mark = "+"
		}
		fmt.Printf("   [%s] %-20s %s\n", mark, p.Name, p.Selector)
	}
}

// inlineIframesAndCapture replaces every <iframe> in the live DOM with a
// <div data-captured-iframe="true"> holding the frame's body, so the fixture
// parses as one document. The user navigates away between captures, so the
// modified DOM is discarded.
func inlineIframesAndCapture(page *rod.Page) (string, int, error) {
	iframes, err := page.Elements("iframe")
	if err != nil {
		return "", 0, fmt.Errorf("failed to get iframe elements: %w", err)
	}
	if len(iframes) == 0 {
		html, err := page.HTML()
		return html, 0, err
	}

	if _, err := page.Eval(inlineIframesJS); err != nil {
		// Cross-origin frames cannot be read.
		fmt.Printf("   Could not inline iframes: %v\n", err)
		html, err := page.HTML()
		return html, 0, err
	}

	html, err := page.HTML()
	if err != nil {
		return "", 0, err
	}
	return html, len(iframes), nil
}

const inlineIframesJS string = `() => {
	function inlineIframes(root) {
		root.querySelectorAll('iframe').forEach((iframe) => {
			try {
				const doc = iframe.contentDocument || iframe.contentWindow.document;
				if (!doc || !doc.body) return;
				inlineIframes(doc);

				const container = root.createElement('div');
				container.setAttribute('data-captured-iframe', 'true');
				container.setAttribute('data-iframe-src', iframe.src || '');
				container.setAttribute('data-iframe-name', iframe.name || '');

				let html = '';
				if (doc.head) {
					doc.head.querySelectorAll('style').forEach((style) => {
						html += '<style data-from-iframe="true">' + style.textContent + '<\/style>';
					});
				}
				container.innerHTML = html + doc.body.innerHTML;
				iframe.parentNode.replaceChild(container, iframe);
			} catch (e) {
				const div = root.createElement('div');
				div.setAttribute('data-captured-iframe', 'true');
				div.setAttribute('data-iframe-error', e.message);
				iframe.parentNode.replaceChild(div, iframe);
			}
		});
	}
	inlineIframes(document);
}`
