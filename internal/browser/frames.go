package browser

import (
	"time"

	"github.com/go-rod/rod"
)

// WaitForIFrames waits for the DOM of page and of every visible iframe in
// it, recursively, to stop changing.
func WaitForIFrames(page *rod.Page) error {
	if err := page.WaitDOMStable(time.Second, 0); err != nil {
		return err
	}

	iframes, err := page.Elements("iframe")
	if err != nil {
		return nil
	}
	for _, iframe := range iframes {
		if visible, _ := iframe.Visible(); !visible {
			continue
		}
		frame, err := iframe.Frame()
		if err != nil {
			continue
		}
		if err := WaitForIFrames(frame); err != nil {
			return err
		}
	}
	return nil
}

// FindInFrames looks for selector in page and then in its visible iframes,
// depth first, without waiting. It returns nil when nothing matches.
func FindInFrames(page *rod.Page, selector string) *rod.Element {
	if ok, el, err := page.Has(selector); err == nil && ok {
		return el
	}

	iframes, err := page.Elements("iframe")
	if err != nil {
		return nil
	}
	for _, iframe := range iframes {
		if visible, _ := iframe.Visible(); !visible {
			continue
		}
		frame, err := iframe.Frame()
		if err != nil {
			continue
		}
		if el := FindInFrames(frame, selector); el != nil {
			return el
		}
	}
	return nil
}
