package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2025, time.November, 18, 9, 0, 0, 0, time.FixedZone("X", 3600))
	a := NewEvent(EventBookingAccepted, at)
	b := NewEvent(EventBookingAccepted, at)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.OccurredAt.Location())
	assert.True(t, a.OccurredAt.Equal(at))
}

func TestAMQPDispatcher_PublishesJSONByType(t *testing.T) {
	ch := &fakeChannel{}
	d := newAMQPDispatcher(nil, ch, "room-reservation.events", zap.NewNop())

	event := NewEvent(EventBookingRejected, time.Now())
	event.BookingID = 7
	event.SlotDate = "2025-11-18"

	require.NoError(t, d.Dispatch(context.Background(), event))
	assert.Equal(t, "room-reservation.events", ch.exchange)
	assert.Equal(t, "booking.rejected", ch.key)
	assert.Equal(t, event.ID, ch.msg.MessageId)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var decoded Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, int64(7), decoded.BookingID)
	assert.Equal(t, "2025-11-18", decoded.SlotDate)

	require.NoError(t, d.Close())
	assert.True(t, ch.closed)
}

func TestAMQPDispatcher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	d := newAMQPDispatcher(nil, ch, "x", zap.NewNop())

	err := d.Dispatch(context.Background(), NewEvent(EventBookingAccepted, time.Now()))
	assert.ErrorContains(t, err, "channel closed")
}

func TestLogDispatcher(t *testing.T) {
	d := NewLogDispatcher(zap.NewNop())
	assert.NoError(t, d.Dispatch(context.Background(), NewEvent(EventBookingAccepted, time.Now())))
	assert.NoError(t, d.Close())
}
