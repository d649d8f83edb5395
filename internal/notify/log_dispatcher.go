package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher writes events to the log. It is used when no broker is configured.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log.With(zap.String("dispatcher", "log"))}
}

func (d *LogDispatcher) Dispatch(_ context.Context, event Event) error {
	d.log.Info("Booking notification",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("booking_id", event.BookingID),
		zap.Int64("user_id", event.UserID),
		zap.String("user_email", event.UserEmail),
		zap.String("room", event.RoomName),
		zap.String("slot_date", event.SlotDate),
		zap.String("range", event.StartTime+"-"+event.EndTime),
		zap.Int("occurrences", event.Occurrences),
	)
	return nil
}

func (d *LogDispatcher) Close() error { return nil }
