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
	"github.com/Skotchmaster/college_portal/internal/session"
	"github.com/Skotchmaster/college_portal/internal/tokens"
)

const SessionTTL = time.Hour

// checkMissing burns a bcrypt comparison when the account does not exist.
var checkMissing = hash.CheckMissing

type AuthService struct {
	Repo   *repo.GormRepo
	Codec  *tokens.Codec
	TTL    time.Duration
	Events authz.EventPublisher
}

type LoginResult struct {
	Kind      session.Kind
	Token     string
	ExpiresAt time.Time
	Profile   any
}

type LoginEvent struct {
	Type    string       `json:"type"`
	Kind    session.Kind `json:"kind"`
	Subject string       `json:"subject"`
	Role    string       `json:"role"`
	At      time.Time    `json:"at"`
}

func (s *AuthService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return SessionTTL
}

// dobLayouts are the accepted date of birth spellings, ISO first.
var dobLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

func dobMatches(dob time.Time, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" || dob.IsZero() {
		return false
	}
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.Year() == dob.Year() && t.Month() == dob.Month() && t.Day() == dob.Day()
		}
	}
	return false
}

// LoginStudent authenticates with the account password once one is set,
// and with the date of birth before that.
func (s *AuthService) LoginStudent(ctx context.Context, rollNo, password, dob string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login_student", "roll_no", rollNo)

	rollNo = strings.TrimSpace(rollNo)
	if rollNo == "" || (password == "" && dob == "") {
		return nil, fmt.Errorf("%w: roll_no and password or dob required", ErrValidation)
	}

	st, err := s.Repo.FindStudentByRoll(ctx, rollNo)
	if errors.Is(err, repo.ErrNotFound) {
		checkMissing(password)
		l.Warn("login_failed", "status", 401, "reason", "unknown roll number")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	var ok bool
	if st.PasswordHash != "" {
		ok = hash.CheckPassword(st.PasswordHash, password)
	} else {
		ok = dobMatches(st.DOB, dob)
	}
	if !ok {
		l.Warn("login_failed", "status", 401, "reason", "credential mismatch")
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, session.KindStudent, tokens.Claims{
		Role:      string(authz.RoleStudent),
		RollNo:    st.RollNo,
		StudentID: st.ID,
		Email:     st.Email,
	}, st)
}

func (s *AuthService) LoginClerk(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login_clerk", "email", email)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	c, err := s.Repo.FindClerkByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		checkMissing(password)
		l.Warn("login_failed", "status", 401, "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(c.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}
	if !c.IsActive {
		l.Warn("login_failed", "status", 403, "reason", "clerk inactive")
		return nil, fmt.Errorf("%w: account is deactivated", ErrNotAllowed)
	}
	role, ok := authz.ParseClerkRole(c.Role)
	if !ok {
		l.Error("login_failed", "status", 403, "reason", "stored clerk role outside role set", "role", c.Role)
		return nil, fmt.Errorf("%w: clerk role %q", ErrNotAllowed, c.Role)
	}

	return s.issue(ctx, session.KindClerk, tokens.Claims{
		Role:    string(role),
		ClerkID: c.ID,
		Email:   c.Email,
	}, c)
}

func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login_admin", "email", email)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	a, err := s.Repo.FindAdminByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		checkMissing(password)
		l.Warn("login_failed", "status", 401, "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(a.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}
	if !authz.Role(a.Role).BelongsTo(session.KindAdmin) {
		l.Error("login_failed", "status", 403, "reason", "stored admin role outside role set", "role", a.Role)
		return nil, fmt.Errorf("%w: admin role %q", ErrNotAllowed, a.Role)
	}

	return s.issue(ctx, session.KindAdmin, tokens.Claims{
		Role:    a.Role,
		ClerkID: a.ID,
		Email:   a.Email,
	}, a)
}

func (s *AuthService) issue(ctx context.Context, kind session.Kind, claims tokens.Claims, profile any) (*LoginResult, error) {
	l := logging.FromContext(ctx)

	token, issued, err := s.Codec.Issue(claims, s.ttl())
	if err != nil {
		l.Error("token_issue_failed", "kind", kind, "error", err)
		return nil, err
	}

	subject := claims.RollNo
	if subject == "" {
		subject = claims.Email
	}
	publish(ctx, s.Events, authz.AuthTopic, subject, LoginEvent{
		Type:    "login_succeeded",
		Kind:    kind,
		Subject: subject,
		Role:    claims.Role,
		At:      time.Now().UTC(),
	})
	l.Info("login_succeeded", "kind", kind, "role", claims.Role)

	return &LoginResult{
		Kind:      kind,
		Token:     token,
		ExpiresAt: issued.ExpiresAt.Time,
		Profile:   profile,
	}, nil
}
