package relay

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateStoreLifecycle(t *testing.T) {
	store := NewStateStore()

	assert.False(t, store.Active(1))
	assert.Equal(t, CancelNoBatch, store.RequestCancel(1))

	assert.True(t, store.TryRegister(1))
	assert.True(t, store.Active(1))
	assert.False(t, store.Cancelled(1))

	assert.Equal(t, CancelRequested, store.RequestCancel(1))
	assert.True(t, store.Cancelled(1))
	assert.Equal(t, CancelAlreadyPending, store.RequestCancel(1))

	store.Remove(1)
	assert.False(t, store.Active(1))
	assert.Equal(t, CancelNoBatch, store.RequestCancel(1))
}

func TestStateStoreRegisterResetsCancelFlag(t *testing.T) {
	store := NewStateStore()

	assert.True(t, store.TryRegister(5))
	store.RequestCancel(5)
	assert.True(t, store.Cancelled(5))

	// a new batch must not inherit the previous batch's cancel flag
	store.Remove(5)
	assert.True(t, store.TryRegister(5))
	assert.False(t, store.Cancelled(5))
}

func TestStateStoreSecondRegisterRejected(t *testing.T) {
	store := NewStateStore()

	assert.True(t, store.TryRegister(5))
	assert.False(t, store.TryRegister(5))

	// the losing attempt must not have touched the winner's flag
	store.RequestCancel(5)
	assert.False(t, store.TryRegister(5))
	assert.True(t, store.Cancelled(5))
}

func TestStateStoreUsersIndependent(t *testing.T) {
	store := NewStateStore()

	assert.True(t, store.TryRegister(1))
	assert.True(t, store.TryRegister(2))
	store.RequestCancel(1)

	assert.True(t, store.Cancelled(1))
	assert.False(t, store.Cancelled(2))
}

// concurrent requests from one user: exactly one claims the slot
func TestStateStoreConcurrentSingleWinner(t *testing.T) {
	store := NewStateStore()

	const attempts = 100
	var wg sync.WaitGroup
	var wins atomic.Int32
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if store.TryRegister(7) {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, store.Active(7))
}

func TestStateStoreConcurrent(t *testing.T) {
	store := NewStateStore()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.TryRegister(id)
			store.RequestCancel(id)
			store.Cancelled(id)
			store.Remove(id)
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		assert.False(t, store.Active(i))
	}
}
