package browser

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

// Pace is the pause between keystrokes: Min plus a random share of Jitter.
type Pace struct {
	Min    time.Duration
	Jitter time.Duration
}

var (
	// HumanPace pauses 50-150ms per key.
	HumanPace = Pace{Min: 50 * time.Millisecond, Jitter: 100 * time.Millisecond}
	// Instant sends every key in one go.
	Instant = Pace{}
)

func (p Pace) pause() time.Duration {
	if p.Jitter <= 0 {
		return p.Min
	}
	return p.Min + rand.N(p.Jitter)
}

// TypeText enters text into el with real keydown/keyup events. With a
// non-zero pace the keys go one at a time and ctx cuts the pauses short.
func TypeText(ctx context.Context, el *rod.Element, text string, pace Pace) error {
	el = el.Context(ctx)
	keys := keysOf(text)
	if pace == Instant {
		return el.Type(keys...)
	}

	for i, key := range keys {
		if i > 0 {
			if err := sleep(ctx, pace.pause()); err != nil {
				return err
			}
		}
		if err := el.Type(key); err != nil {
			return err
		}
	}
	return nil
}

func keysOf(text string) []input.Key {
	keys := make([]input.Key, 0, len(text))
	for _, r := range text {
		keys = append(keys, input.Key(r))
	}
	return keys
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
