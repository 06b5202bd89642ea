package browser

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/stretchr/testify/assert"
)

func TestKeysOf(t *testing.T) {
	assert.Equal(t, []input.Key{'1', '2', '3'}, keysOf("123"))
	assert.Equal(t, []input.Key{'é', 'a'}, keysOf("éa"), "one key per rune")
	assert.Empty(t, keysOf(""))
}

func TestPace_Pause(t *testing.T) {
	assert.Equal(t, time.Duration(0), Instant.pause())
	assert.Equal(t, 10*time.Millisecond, Pace{Min: 10 * time.Millisecond}.pause())

	for range 100 {
		d := HumanPace.pause()
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 150*time.Millisecond)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
