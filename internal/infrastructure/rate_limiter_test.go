package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowRateLimiter(t *testing.T) {
	rl := NewWindowRateLimiter(3, 15*time.Minute)
	defer rl.Stop()

	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1")
		assert.True(t, ok, "hit %d", i)
	}

	ok, reset := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 15*time.Minute, reset)
	assert.Equal(t, 0, rl.Remaining("10.0.0.1"))

	// Other clients are counted separately.
	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok)

	current = current.Add(15 * time.Minute)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, 2, rl.Remaining("10.0.0.1"))
}
