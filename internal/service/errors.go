package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/logging"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrNotAllowed         = errors.New("not allowed")         // 403
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
	ErrResetTokenInvalid  = errors.New("reset token invalid") // 400
	ErrOTPInvalid         = errors.New("otp invalid")         // 400
)

const (
	MailTopic     = "mail_events"
	publishBudget = 5 * time.Second
)

// publish sends an event without letting a broker problem fail the caller.
func publish(ctx context.Context, p authz.EventPublisher, topic, key string, event any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishBudget)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "topic", topic, "error", err)
	}
}
