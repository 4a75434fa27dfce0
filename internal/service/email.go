package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/otpstore"
	"github.com/Skotchmaster/college_portal/internal/repo"
)

const (
	verifyOTPTTL = 5 * time.Minute
	updateOTPTTL = 10 * time.Minute
)

type OTPCodes interface {
	Issue(ctx context.Context, rollNo, email string, ttl time.Duration) (string, time.Time, error)
	Verify(ctx context.Context, rollNo, code string) (string, error)
}

// EmailService proves a student controls an email address by mailing a
// one-time code to it.
type EmailService struct {
	Repo   *repo.GormRepo
	Codes  OTPCodes
	Events authz.EventPublisher
}

type OTPRequestedEvent struct {
	Type      string    `json:"type"`
	RollNo    string    `json:"roll_no"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SendVerificationOTP mails a code to the email already on record for
// rollNo.
func (s *EmailService) SendVerificationOTP(ctx context.Context, rollNo string) error {
	l := logging.FromContext(ctx).With("svc", "email.send_otp", "roll_no", rollNo)

	rollNo = strings.ToUpper(strings.TrimSpace(rollNo))
	if rollNo == "" {
		return fmt.Errorf("%w: roll_no required", ErrValidation)
	}
	st, err := s.Repo.FindStudentByRoll(ctx, rollNo)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: student", ErrNotFound)
	}
	if err != nil {
		l.Error("otp_send_failed", "status", 500, "error", err)
		return err
	}
	if st.Email == "" {
		return fmt.Errorf("%w: no email on record", ErrNotFound)
	}
	return s.send(ctx, l, st.RollNo, st.Email, verifyOTPTTL)
}

// SendUpdateOTP mails a code to a new address the student wants to use.
func (s *EmailService) SendUpdateOTP(ctx context.Context, p *authz.Principal, email string) error {
	l := logging.FromContext(ctx).With("svc", "email.send_update_otp", "roll_no", p.RollNo)

	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	taken, err := s.Repo.EmailTaken(ctx, email, p.StudentID)
	if err != nil {
		l.Error("otp_send_failed", "status", 500, "error", err)
		return err
	}
	if taken {
		return fmt.Errorf("%w: email already in use", ErrConflict)
	}
	return s.send(ctx, l, p.RollNo, email, updateOTPTTL)
}

// VerifyOTP redeems a code. The email must be the one the code was sent
// to; it becomes the student's verified address.
func (s *EmailService) VerifyOTP(ctx context.Context, p *authz.Principal, email, code string) error {
	l := logging.FromContext(ctx).With("svc", "email.verify_otp", "roll_no", p.RollNo)

	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: otp required", ErrValidation)
	}

	bound, err := s.Codes.Verify(ctx, p.RollNo, code)
	if errors.Is(err, otpstore.ErrCodeInvalid) {
		l.Warn("otp_verify_failed", "status", 400, "reason", "code unknown, wrong or expired")
		return ErrOTPInvalid
	}
	if err != nil {
		l.Error("otp_verify_failed", "status", 500, "error", err)
		return err
	}
	if !strings.EqualFold(bound, email) {
		l.Warn("otp_verify_failed", "status", 400, "reason", "email mismatch")
		return ErrOTPInvalid
	}

	if err := s.Repo.MarkEmailVerified(ctx, p.StudentID, email); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: student", ErrNotFound)
		}
		l.Error("otp_verify_failed", "status", 500, "error", err)
		return err
	}
	l.Info("email_verified")
	return nil
}

func (s *EmailService) send(ctx context.Context, l *slog.Logger, rollNo, email string, ttl time.Duration) error {
	code, expires, err := s.Codes.Issue(ctx, rollNo, email, ttl)
	if err != nil {
		l.Error("otp_send_failed", "status", 500, "error", err)
		return err
	}
	publish(ctx, s.Events, MailTopic, rollNo, OTPRequestedEvent{
		Type:      "email_otp_requested",
		RollNo:    rollNo,
		Email:     email,
		Code:      code,
		ExpiresAt: expires,
	})
	l.Info("otp_sent")
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email required", ErrValidation)
	}
	if a, err := mail.ParseAddress(email); err != nil || a.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return email, nil
}
