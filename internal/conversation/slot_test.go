// ABOUTME: Tests for the single in-flight slot
// ABOUTME: Covers exclusive acquire and stale ticket release

package conversation

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_SingleHolder(t *testing.T) {
	var s slot

	t1, ok := s.tryAcquire()
	require.True(t, ok)
	assert.True(t, s.busy())

	_, ok = s.tryAcquire()
	assert.False(t, ok)

	s.release(t1)
	assert.False(t, s.busy())

	t2, ok := s.tryAcquire()
	require.True(t, ok)
	assert.NotEqual(t, t1, t2)

	// A stale ticket cannot free the new holder.
	s.release(t1)
	assert.True(t, s.busy())
	s.release(t2)
	s.release(t2)
	assert.False(t, s.busy())
}

func TestSlot_Concurrent(t *testing.T) {
	var s slot
	var acquired atomic.Int32
	var wg sync.WaitGroup

	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.tryAcquire(); ok {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}
