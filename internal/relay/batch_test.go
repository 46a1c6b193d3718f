package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tawhid120/Save-restricted-content-bot/internal/telegram"
)

type fakePublisher struct {
	runID   string
	userID  int64
	summary *Summary
}

func (f *fakePublisher) BatchDone(runID string, userID int64, s *Summary) {
	f.runID = runID
	f.userID = userID
	f.summary = s
}

func rangeMessages(start, end int) map[int]*telegram.Message {
	msgs := make(map[int]*telegram.Message)
	for id := start; id <= end; id++ {
		msgs[id] = textMsg(id, "msg")
	}
	return msgs
}

func newCoordinator(fake *fakeMessenger, pub EventPublisher) *Coordinator {
	coord := NewCoordinator(NewEngine(fake), NewStateStore(), pub)
	coord.pacing = time.Millisecond
	return coord
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, ValidateRange(1, 1))
	assert.NoError(t, ValidateRange(1, BatchLimit))
	assert.ErrorIs(t, ValidateRange(10, 5), ErrInvertedRange)
	assert.ErrorIs(t, ValidateRange(1, BatchLimit+1), ErrRangeTooLarge)
}

func TestRunValidation(t *testing.T) {
	fake := &fakeMessenger{}
	coord := newCoordinator(fake, nil)

	t.Run("inverted range", func(t *testing.T) {
		_, err := coord.Run(context.Background(), 1, testChannel, testDest, 10, 5, nil)
		assert.ErrorIs(t, err, ErrInvertedRange)
	})

	t.Run("over the limit", func(t *testing.T) {
		_, err := coord.Run(context.Background(), 1, testChannel, testDest, 1, BatchLimit+1, nil)
		assert.ErrorIs(t, err, ErrRangeTooLarge)
	})

	// precondition failures never touch the messenger
	assert.Empty(t, fake.calls)
}

func TestRunSingleMessage(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(10, 10)}
	coord := NewCoordinator(NewEngine(fake), NewStateStore(), nil)

	started := time.Now()
	summary, err := coord.Run(context.Background(), 1, testChannel, testDest, 10, 10, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Requested)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	// a single message never waits out the pacing interval
	assert.Less(t, time.Since(started), defaultPacing)
}

func TestRunFullRange(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(500, 510)}
	coord := newCoordinator(fake, nil)

	summary, err := coord.Run(context.Background(), 1, testChannel, testDest, 500, 510, nil)

	require.NoError(t, err)
	assert.Equal(t, 11, summary.Requested)
	assert.Equal(t, 11, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.Cancelled)
}

func TestRunCountsFailures(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(1, 3)}
	delete(fake.messages, 2) // id 2 was deleted from the channel

	coord := newCoordinator(fake, nil)
	summary, err := coord.Run(context.Background(), 1, testChannel, testDest, 1, 3, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Requested)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Error(t, summary.LastError)
	assert.ErrorIs(t, summary.LastError, telegram.ErrNotFound)
}

func TestRunProgressCallback(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(1, 2)}
	coord := newCoordinator(fake, nil)

	var reports []int
	summary, err := coord.Run(context.Background(), 1, testChannel, testDest, 1, 2, func(done, total int, err error) {
		reports = append(reports, done)
		assert.Equal(t, 2, total)
		assert.NoError(t, err)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, reports)
	assert.Equal(t, 2, summary.Succeeded)
}

func TestRunCancellation(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(1, 10)}
	coord := newCoordinator(fake, nil)

	summary, err := coord.Run(context.Background(), 7, testChannel, testDest, 1, 10, func(done, total int, err error) {
		if done == 2 {
			assert.Equal(t, CancelRequested, coord.State().RequestCancel(7))
		}
	})

	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 2, summary.Succeeded)
	// everything not delivered counts as failed
	assert.Equal(t, 8, summary.Failed)
}

func TestRunReleasesStateSlot(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(1, 2)}
	coord := newCoordinator(fake, nil)

	_, err := coord.Run(context.Background(), 5, testChannel, testDest, 1, 2, nil)
	require.NoError(t, err)
	assert.False(t, coord.State().Active(5))

	// the slot is also released when the run is cancelled
	_, err = coord.Run(context.Background(), 5, testChannel, testDest, 1, 5, func(done, total int, err error) {
		coord.State().RequestCancel(5)
	})
	require.NoError(t, err)
	assert.False(t, coord.State().Active(5))
	assert.Equal(t, CancelNoBatch, coord.State().RequestCancel(5))
}

func TestRunRejectsConcurrentBatch(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(1, 3)}
	coord := newCoordinator(fake, nil)

	second := make(chan error, 1)
	_, err := coord.Run(context.Background(), 9, testChannel, testDest, 1, 3, func(done, total int, err error) {
		if done == 1 {
			_, err2 := coord.Run(context.Background(), 9, testChannel, testDest, 1, 1, nil)
			second <- err2
		}
	})

	require.NoError(t, err)
	assert.ErrorIs(t, <-second, ErrBatchRunning)
}

func TestRunContextCancel(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(1, 50)}
	coord := newCoordinator(fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	summary, err := coord.Run(ctx, 3, testChannel, testDest, 1, 50, func(done, total int, err error) {
		if done == 1 {
			cancel()
		}
	})

	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.False(t, coord.State().Active(3))
}

func TestRunNotifiesPublisher(t *testing.T) {
	fake := &fakeMessenger{messages: rangeMessages(1, 2)}
	pub := &fakePublisher{}
	coord := newCoordinator(fake, pub)

	summary, err := coord.Run(context.Background(), 11, testChannel, testDest, 1, 2, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, pub.runID)
	assert.Equal(t, int64(11), pub.userID)
	assert.Equal(t, summary, pub.summary)
}
