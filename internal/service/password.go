package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/hash"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/repo"
	"github.com/Skotchmaster/college_portal/internal/resetstore"
)

const MinPasswordLen = 8

type ResetTokens interface {
	Issue(ctx context.Context, studentID uint) (string, time.Time, error)
	Consume(ctx context.Context, token string) (uint, error)
}

type PasswordService struct {
	Repo   *repo.GormRepo
	Tokens ResetTokens
	Events authz.EventPublisher
}

type ResetRequestedEvent struct {
	Type      string    `json:"type"`
	RollNo    string    `json:"roll_no"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Forgot starts a reset for rollNo. Unknown roll numbers and students
// without an email succeed silently so the endpoint cannot be used to
// discover which accounts exist.
func (s *PasswordService) Forgot(ctx context.Context, rollNo string) error {
	l := logging.FromContext(ctx).With("svc", "password.forgot", "roll_no", rollNo)

	rollNo = strings.TrimSpace(rollNo)
	if rollNo == "" {
		return fmt.Errorf("%w: roll_no required", ErrValidation)
	}

	st, err := s.Repo.FindStudentByRoll(ctx, rollNo)
	if errors.Is(err, repo.ErrNotFound) {
		l.Info("reset_skipped", "reason", "unknown roll number")
		return nil
	}
	if err != nil {
		l.Error("reset_failed", "status", 500, "error", err)
		return err
	}
	if st.Email == "" {
		l.Info("reset_skipped", "reason", "no email on record")
		return nil
	}

	token, expires, err := s.Tokens.Issue(ctx, st.ID)
	if err != nil {
		l.Error("reset_failed", "status", 500, "error", err)
		return err
	}

	publish(ctx, s.Events, MailTopic, st.RollNo, ResetRequestedEvent{
		Type:      "password_reset_requested",
		RollNo:    st.RollNo,
		Email:     st.Email,
		Token:     token,
		ExpiresAt: expires,
	})
	l.Info("reset_requested")
	return nil
}

func (s *PasswordService) Reset(ctx context.Context, token, password string) error {
	l := logging.FromContext(ctx).With("svc", "password.reset")

	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}

	studentID, err := s.Tokens.Consume(ctx, token)
	if errors.Is(err, resetstore.ErrTokenNotFound) {
		l.Warn("reset_failed", "status", 400, "reason", "token unknown, used or expired")
		return ErrResetTokenInvalid
	}
	if err != nil {
		l.Error("reset_failed", "status", 500, "error", err)
		return err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Repo.SetStudentPassword(ctx, studentID, pwHash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		l.Error("reset_failed", "status", 500, "error", err)
		return err
	}
	l.Info("password_reset", "student_id", studentID)
	return nil
}
