package sms

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
)

// LogSender writes messages to the log instead of sending them. Used in
// development and when no gateway is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendMessage implements notification.MessageSender.
func (l *LogSender) SendMessage(_ context.Context, req notification.SendRequest) (*notification.SendResult, error) {
	id := "log-" + uuid.NewString()
	l.logger.Info("sms (not sent)",
		zap.String("to", req.Phone),
		zap.String("message", req.Message),
		zap.String("message_id", id),
	)
	return &notification.SendResult{Success: true, MessageID: id}, nil
}
