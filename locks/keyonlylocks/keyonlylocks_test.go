package keyonlylocks

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLock(t *testing.T) {
	store := &sync.Map{}
	release, ok := TryLock(store, "invoice:KMJ-9")
	require.True(t, ok)
	_, held := store.Load("invoice:KMJ-9")
	assert.True(t, held)

	again, ok := TryLock(store, "invoice:KMJ-9")
	assert.False(t, ok)
	assert.Nil(t, again)

	release()
	_, held = store.Load("invoice:KMJ-9")
	assert.False(t, held)

	again, ok = TryLock(store, "invoice:KMJ-9")
	require.True(t, ok, "free again after release")
	again()
}

func TestTryLockConcurrent(t *testing.T) {
	store := &sync.Map{}
	var winners atomic.Int32
	var ready, wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		ready.Add(1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			ready.Done()
			<-start
			if _, ok := TryLock(store, "quote:KMJ-1"); ok {
				winners.Add(1)
			}
		}()
	}
	ready.Wait()
	close(start)
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}
