// Package browser drives a real Chrome with rod for the parts of the login
// that need one.
package browser

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// LaunchConfig selects the Chrome to start.
type LaunchConfig struct {
	// Bin is the Chrome executable; empty lets rod find or download one.
	Bin      string
	Headless bool
}

// Launch starts Chrome without the automation markers and connects to it.
func Launch(cfg LaunchConfig) (*rod.Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("exclude-switches", "enable-automation").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", "1280,900")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	return b, nil
}
