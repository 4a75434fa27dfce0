package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/models"
	"github.com/Skotchmaster/college_portal/internal/repo"
)

type RequestService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *RequestService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type NewRequest struct {
	CertificateType string
	TransactionID   string
	Screenshot      []byte
	ScreenshotType  string
}

func (s *RequestService) Create(ctx context.Context, p *authz.Principal, in NewRequest) (*models.StudentRequest, error) {
	l := logging.FromContext(ctx).With("svc", "requests.create", "roll_no", p.RollNo)

	st, err := s.Repo.FindStudentByID(ctx, p.StudentID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: student", ErrNotFound)
	}
	if err != nil {
		l.Error("request_create_failed", "status", 500, "error", err)
		return nil, err
	}
	cert, ok := LookupCertificate(strings.TrimSpace(in.CertificateType))
	if !ok {
		return nil, fmt.Errorf("%w: unknown certificate type", ErrValidation)
	}

	txn := strings.TrimSpace(in.TransactionID)
	if cert.Fee > 0 && (txn == "" || len(in.Screenshot) == 0) {
		return nil, fmt.Errorf("%w: transaction id and screenshot are required for paid certificates", ErrValidation)
	}

	req := &models.StudentRequest{
		StudentID:       st.ID,
		RollNo:          st.RollNo,
		CertificateType: cert.Name,
		ClerkType:       string(cert.Clerk),
		Status:          models.StatusPending,
		PaymentAmount:   cert.Fee,
		TransactionID:   txn,
	}
	var shot *models.StudentRequestImage
	if len(in.Screenshot) > 0 {
		shot = &models.StudentRequestImage{PaymentScreenshot: in.Screenshot, ContentType: in.ScreenshotType}
	}

	if err := s.Repo.CreateRequest(ctx, req, shot); err != nil {
		l.Error("request_create_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("request_created", "request_id", req.RequestID, "certificate_type", cert.Name)
	return req, nil
}

func (s *RequestService) ListForStudent(ctx context.Context, p *authz.Principal, from, size int) (int64, []models.StudentRequest, error) {
	return s.Repo.ListRequestsByStudent(ctx, p.StudentID, from, size)
}

// ListForClerk returns the queue of the clerk's desk, optionally filtered
// by status.
func (s *RequestService) ListForClerk(ctx context.Context, p *authz.Principal, status string, from, size int) (int64, []models.StudentRequest, error) {
	if status != "" {
		st, err := parseStatus(status)
		if err != nil {
			return 0, nil, err
		}
		status = st
	}
	return s.Repo.ListRequestsByClerkType(ctx, string(p.Role), status, from, size)
}

func (s *RequestService) Get(ctx context.Context, requestID uint) (*models.StudentRequest, error) {
	req, err := s.Repo.GetRequest(ctx, requestID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: request", ErrNotFound)
	}
	return req, err
}

type StatusChange struct {
	Status       string
	Purpose      string
	RejectReason string
}

func parseStatus(raw string) (string, error) {
	switch st := strings.ToUpper(strings.TrimSpace(raw)); st {
	case models.StatusApproved, models.StatusRejected, models.StatusPending:
		return st, nil
	}
	return "", fmt.Errorf("%w: invalid status", ErrValidation)
}

// UpdateStatus moves a request on the acting clerk's desk. Rejections need
// a reason; decisions record who made them.
func (s *RequestService) UpdateStatus(ctx context.Context, p *authz.Principal, requestID uint, ch StatusChange) error {
	l := logging.FromContext(ctx).With("svc", "requests.update_status", "request_id", requestID, "clerk_id", p.ClerkID)

	status, err := parseStatus(ch.Status)
	if err != nil {
		return err
	}
	reason := strings.TrimSpace(ch.RejectReason)
	if status == models.StatusRejected && reason == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	err = s.Repo.UpdateRequestStatus(ctx, requestID, repo.StatusUpdate{
		Status:       status,
		Purpose:      strings.TrimSpace(ch.Purpose),
		RejectReason: reason,
		ClerkID:      p.ClerkID,
		ClerkRole:    string(p.Role),
		At:           s.now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: request", ErrNotFound)
	}
	if err != nil {
		l.Error("request_update_failed", "status", 500, "error", err)
		return err
	}
	l.Info("request_status_changed", "new_status", status)
	return nil
}

func (s *RequestService) Screenshot(ctx context.Context, requestID uint) (*models.StudentRequestImage, error) {
	img, err := s.Repo.GetRequestImage(ctx, requestID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: screenshot", ErrNotFound)
	}
	return img, err
}

// StudentOwnsRequest looks up the request's student and compares it with
// the principal. A missing request is not owned.
func (s *RequestService) StudentOwnsRequest(requestID uint) authz.OwnerCheck {
	return func(ctx context.Context, p *authz.Principal) (bool, error) {
		owner, err := s.Repo.RequestOwner(ctx, requestID)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return owner.StudentID == p.StudentID, nil
	}
}

// DeskHandlesRequest admits a clerk only for requests routed to their role.
func (s *RequestService) DeskHandlesRequest(requestID uint) authz.OwnerCheck {
	return func(ctx context.Context, p *authz.Principal) (bool, error) {
		owner, err := s.Repo.RequestOwner(ctx, requestID)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return owner.ClerkType == string(p.Role), nil
	}
}
