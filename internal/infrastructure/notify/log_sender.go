package notify

import (
	"context"

	"github.com/Zhima-Mochi/minimarket/internal/domain/notification"
	"go.uber.org/zap"
)

// LogSender writes notifications to the log. It stands in for a real
// email or push channel in local and demo environments.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.With(zap.String("component", "notify_log_sender"))}
}

func (s *LogSender) Send(_ context.Context, n notification.Notification) error {
	s.log.Info("notification_sent",
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)),
		zap.String("message", n.Message),
		zap.String("link", n.Link),
	)
	return nil
}
