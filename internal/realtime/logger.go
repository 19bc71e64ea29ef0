package realtime

import (
	"github.com/vonout/Backend/pkg/logger"

	"go.uber.org/zap"
)

// eventLogger tags every realtime log line with the event and connection id.
type eventLogger struct {
	logger *zap.Logger
}

func newEventLogger(l *logger.Logger) *eventLogger {
	if l == nil {
		l = logger.NewNop()
	}
	return &eventLogger{logger: l.Named("realtime").Logger}
}

func (l *eventLogger) Info(event, connID string, fields ...zap.Field) {
	l.logger.Info("realtime_event", append([]zap.Field{
		zap.String("event", event),
		zap.String("conn_id", connID),
	}, fields...)...)
}

func (l *eventLogger) Warn(event, connID string, fields ...zap.Field) {
	l.logger.Warn("realtime_warning", append([]zap.Field{
		zap.String("event", event),
		zap.String("conn_id", connID),
	}, fields...)...)
}

func (l *eventLogger) Error(event, connID string, err error, fields ...zap.Field) {
	l.logger.Error("realtime_error", append([]zap.Field{
		zap.String("event", event),
		zap.String("conn_id", connID),
		zap.Error(err),
	}, fields...)...)
}
