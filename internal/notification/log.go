package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes events to the log. It is used when no broker is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, ev Event) error {
	s.logger.Info("notification",
		zap.String("event_id", ev.ID),
		zap.String("kind", string(ev.Kind)),
		zap.String("channel", string(ev.Channel)),
		zap.String("appointment_id", ev.AppointmentID),
		zap.String("business_id", ev.BusinessID),
		zap.String("status", ev.Status),
		zap.Time("start_time", ev.StartTime),
	)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
