package infrastructure

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyGuard(t *testing.T) {
	g := NewReplyGuard()

	assert.True(t, g.TryAcquire("acme", "c1"))
	assert.True(t, g.busy("acme", "c1"))
	assert.False(t, g.TryAcquire("acme", "c1"))
	assert.True(t, g.TryAcquire("acme", "c2"), "conversations are independent")

	g.Release("acme", "c1")
	assert.False(t, g.busy("acme", "c1"))
	assert.True(t, g.TryAcquire("acme", "c1"))
}

func TestReplyGuardScopedByCompany(t *testing.T) {
	g := NewReplyGuard()

	assert.True(t, g.TryAcquire("acme", "c1"))
	assert.True(t, g.TryAcquire("beta", "c1"))
	assert.False(t, g.busy("beta", "c2"))

	g.Release("beta", "c1")
	assert.True(t, g.busy("acme", "c1"))
}

func TestReplyGuardSingleWinner(t *testing.T) {
	g := NewReplyGuard()

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire("acme", "c1") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
