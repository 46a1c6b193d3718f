package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tawhid120/Save-restricted-content-bot/internal/telegram"
)

// fakeMessenger scripts per-method outcomes and records the calls made.
type fakeMessenger struct {
	messages map[int]*telegram.Message
	fetchErr error

	sendTextErr  error
	sendMediaErr error
	sendPollErr  error
	duplicateErr error
	forwardErr   error

	calls []string
}

func (f *fakeMessenger) FetchMessage(_ context.Context, _ *telegram.Channel, msgID int) (*telegram.Message, error) {
	f.calls = append(f.calls, "fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	msg, ok := f.messages[msgID]
	if !ok {
		return nil, telegram.ErrNotFound
	}
	return msg, nil
}

func (f *fakeMessenger) SendText(_ context.Context, _ tg.InputPeerClass, text string, _ []tg.MessageEntityClass) (*telegram.Message, error) {
	f.calls = append(f.calls, "sendText")
	if f.sendTextErr != nil {
		return nil, f.sendTextErr
	}
	return &telegram.Message{ID: 1, Kind: telegram.KindText, Text: text}, nil
}

func (f *fakeMessenger) SendMedia(_ context.Context, _ tg.InputPeerClass, _ tg.InputMediaClass, _ string, _ []tg.MessageEntityClass) (*telegram.Message, error) {
	f.calls = append(f.calls, "sendMedia")
	if f.sendMediaErr != nil {
		return nil, f.sendMediaErr
	}
	return &telegram.Message{ID: 2}, nil
}

func (f *fakeMessenger) SendPoll(_ context.Context, _ tg.InputPeerClass, _ *telegram.Poll) (*telegram.Message, error) {
	f.calls = append(f.calls, "sendPoll")
	if f.sendPollErr != nil {
		return nil, f.sendPollErr
	}
	return &telegram.Message{ID: 3, Kind: telegram.KindPoll}, nil
}

func (f *fakeMessenger) Duplicate(_ context.Context, _ tg.InputPeerClass, _ *telegram.Channel, msgID int) (*telegram.Message, error) {
	f.calls = append(f.calls, "duplicate")
	if f.duplicateErr != nil {
		return nil, f.duplicateErr
	}
	return &telegram.Message{ID: msgID}, nil
}

func (f *fakeMessenger) Forward(_ context.Context, _ tg.InputPeerClass, _ *telegram.Channel, msgID int) (*telegram.Message, error) {
	f.calls = append(f.calls, "forward")
	if f.forwardErr != nil {
		return nil, f.forwardErr
	}
	return &telegram.Message{ID: msgID}, nil
}

var (
	testChannel = &telegram.Channel{ID: 1234, AccessHash: 5678, Username: "somechannel"}
	testDest    = &tg.InputPeerUser{UserID: 42, AccessHash: 1}
)

func textMsg(id int, text string) *telegram.Message {
	return &telegram.Message{ID: id, Kind: telegram.KindText, Text: text}
}

func TestTransferText(t *testing.T) {
	fake := &fakeMessenger{messages: map[int]*telegram.Message{10: textMsg(10, "hello")}}
	engine := NewEngine(fake)

	sent, err := engine.Transfer(context.Background(), testChannel, testDest, 10)

	require.NoError(t, err)
	assert.Equal(t, "hello", sent.Text)
	assert.Equal(t, []string{"fetch", "sendText"}, fake.calls)
}

func TestTransferMissingFailsFast(t *testing.T) {
	fake := &fakeMessenger{messages: map[int]*telegram.Message{}}
	engine := NewEngine(fake)

	_, err := engine.Transfer(context.Background(), testChannel, testDest, 99)

	require.ErrorIs(t, err, telegram.ErrNotFound)
	assert.Equal(t, []string{"fetch"}, fake.calls)
}

func TestTransferEmptyFailsFast(t *testing.T) {
	fake := &fakeMessenger{messages: map[int]*telegram.Message{
		5: {ID: 5, Kind: telegram.KindUnknown},
	}}
	engine := NewEngine(fake)

	_, err := engine.Transfer(context.Background(), testChannel, testDest, 5)

	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, []string{"fetch"}, fake.calls)
}

func TestTransferFallsBackToDuplicate(t *testing.T) {
	fake := &fakeMessenger{
		messages:    map[int]*telegram.Message{10: textMsg(10, "hi")},
		sendTextErr: errors.New("CHAT_WRITE_FORBIDDEN"),
	}
	engine := NewEngine(fake)

	_, err := engine.Transfer(context.Background(), testChannel, testDest, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "sendText", "duplicate"}, fake.calls)
}

func TestTransferFallsBackToForward(t *testing.T) {
	fake := &fakeMessenger{
		messages:     map[int]*telegram.Message{10: textMsg(10, "hi")},
		sendTextErr:  errors.New("send failed"),
		duplicateErr: errors.New("copy failed"),
	}
	engine := NewEngine(fake)

	_, err := engine.Transfer(context.Background(), testChannel, testDest, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "sendText", "duplicate", "forward"}, fake.calls)
}

func TestTransferAllStrategiesFail(t *testing.T) {
	fake := &fakeMessenger{
		messages:     map[int]*telegram.Message{10: textMsg(10, "hi")},
		sendTextErr:  errors.New("first"),
		duplicateErr: errors.New("second"),
		forwardErr:   errors.New("CHANNEL_PRIVATE"),
	}
	engine := NewEngine(fake)

	_, err := engine.Transfer(context.Background(), testChannel, testDest, 10)

	// the last strategy's error is the one reported
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHANNEL_PRIVATE")
}

func TestTransferQuizSkipsManual(t *testing.T) {
	fake := &fakeMessenger{messages: map[int]*telegram.Message{
		7: {ID: 7, Kind: telegram.KindPoll, Poll: &telegram.Poll{Quiz: true, Question: "2+2?"}},
	}}
	engine := NewEngine(fake)

	_, err := engine.Transfer(context.Background(), testChannel, testDest, 7)

	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "duplicate"}, fake.calls)
}

func TestTransferRegularPollRebuilt(t *testing.T) {
	fake := &fakeMessenger{messages: map[int]*telegram.Message{
		7: {ID: 7, Kind: telegram.KindPoll, Poll: &telegram.Poll{Question: "color?", Options: []string{"red", "blue"}}},
	}}
	engine := NewEngine(fake)

	_, err := engine.Transfer(context.Background(), testChannel, testDest, 7)

	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "sendPoll"}, fake.calls)
}

func TestTransferMediaUsesFileReference(t *testing.T) {
	fake := &fakeMessenger{messages: map[int]*telegram.Message{
		8: {
			ID:    8,
			Kind:  telegram.KindPhoto,
			Text:  "caption",
			Media: &tg.InputMediaPhoto{ID: &tg.InputPhoto{ID: 1}},
		},
	}}
	engine := NewEngine(fake)

	_, err := engine.Transfer(context.Background(), testChannel, testDest, 8)

	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "sendMedia"}, fake.calls)
}
