package notification

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

// LogWriter prints notifications instead of delivering them. Used in dev.
type LogWriter struct{}

func (l *LogWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	zap.S().Named("notification_writer").Infow("notification wrote", "topic", topic, "type", e.Type(), "id", e.ID())
	return nil
}

func (l *LogWriter) Close(_ context.Context) error {
	return nil
}
