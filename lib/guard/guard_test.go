package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRejectsWhileHeld(t *testing.T) {
	g := New()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- g.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.True(t, g.Busy())
	assert.ErrorIs(t, g.Do(func() error { return nil }), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, g.Busy())

	// Slot is reusable after release.
	require.NoError(t, g.Do(func() error { return nil }))
}

func TestConcurrentDoAdmitsNoneWhileHeld(t *testing.T) {
	g := New()
	require.True(t, g.TryAcquire())

	var wg sync.WaitGroup
	var mu sync.Mutex
	busy := 0

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Do(func() error { return nil })
			if err == ErrBusy {
				mu.Lock()
				busy++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, busy)

	g.Release()
	require.NoError(t, g.Do(func() error { return nil }))
}
