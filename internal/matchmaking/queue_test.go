package matchmaking

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()

	require.NoError(t, q.Add("a"))
	require.NoError(t, q.Add("b"))
	require.NoError(t, q.Add("c"))
	assert.Equal(t, 3, q.Size())
	assert.Equal(t, 1, q.Position("a"))
	assert.Equal(t, 3, q.Position("c"))

	first, second, ok := q.FindMatch()
	require.True(t, ok)
	assert.Equal(t, "a", first, "oldest entry pairs first")
	assert.Equal(t, "b", second)
	assert.Equal(t, 1, q.Size())
	assert.False(t, q.IsQueued("a"))

	_, _, ok = q.FindMatch()
	assert.False(t, ok, "one waiting user is not a pair")
}

func TestQueueAddDuplicate(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Add("a"))
	assert.ErrorIs(t, q.Add("a"), ErrAlreadyQueued)
	assert.Equal(t, 1, q.Size())
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Add("a"))
	require.NoError(t, q.Add("b"))

	assert.True(t, q.Remove("a"))
	assert.False(t, q.Remove("a"))
	assert.Equal(t, 1, q.Size())
	assert.Equal(t, 1, q.Position("b"))
	assert.Zero(t, q.Position("a"))
}

func TestQueueConcurrentPairUp(t *testing.T) {
	q := NewQueue()
	const users = 64

	for i := 0; i < users; i++ {
		require.NoError(t, q.Add(fmt.Sprintf("user-%d", i)))
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				a, b, ok := q.FindMatch()
				if !ok {
					return
				}
				mu.Lock()
				seen[a]++
				seen[b]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, q.Size())
	assert.Len(t, seen, users, "every user got paired")
	for user, count := range seen {
		assert.Equal(t, 1, count, "user %s appeared in %d pairs", user, count)
	}
}
