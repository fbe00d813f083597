package notifier

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Sink delivers a formatted message. Delivery is best-effort: callers log
// and count failures and never retry within a pass.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// LogSink writes messages to the log. Used when Telegram is not configured.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s LogSink) Send(_ context.Context, text string) error {
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithField("component", "notifier").Info("notification (log sink):\n" + text)
	return nil
}
