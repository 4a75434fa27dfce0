package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/models"
	"github.com/Skotchmaster/college_portal/internal/repo"
)

const certificatePrefix = "KUCET-"

type CertificateService struct {
	Repo   *repo.GormRepo
	Secret []byte
}

// IssuedCertificate is what a student receives for an approved request.
// Rendering the document is left to the front end.
type IssuedCertificate struct {
	CertificateID   string     `json:"certificate_id"`
	CertificateType string     `json:"certificate_type"`
	Name            string     `json:"name"`
	RollNo          string     `json:"roll_no"`
	IssuedAt        *time.Time `json:"issued_at,omitempty"`
	VerifyPath      string     `json:"verify_path"`
}

type CertificateDetails struct {
	Name      string `json:"name"`
	RollNo    string `json:"roll_no"`
	CertID    string `json:"cert_id"`
	IssueDate string `json:"issue_date"`
	Type      string `json:"type"`
}

type VerifyResult struct {
	Valid   bool                `json:"valid"`
	Details *CertificateDetails `json:"details,omitempty"`
}

// CertificateID derives the stable public id of a certificate type issued
// to rollNo.
func CertificateID(secret []byte, rollNo, certType string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(rollNo + "-" + certType))
	return certificatePrefix + strings.ToUpper(hex.EncodeToString(mac.Sum(nil))[:8])
}

// verified reports why st may not receive certificates yet, or nil.
func verified(st *models.Student) error {
	switch {
	case st.Email == "":
		return fmt.Errorf("%w: verification required: email address not found", ErrNotAllowed)
	case !st.IsEmailVerified:
		return fmt.Errorf("%w: verification required: email not verified", ErrNotAllowed)
	case st.PasswordHash == "":
		return fmt.Errorf("%w: verification required: password not set", ErrNotAllowed)
	}
	return nil
}

// Issue hands out the certificate of an approved request. The student must
// have a verified email and a password first.
func (s *CertificateService) Issue(ctx context.Context, p *authz.Principal, requestID uint) (*IssuedCertificate, error) {
	l := logging.FromContext(ctx).With("svc", "certificates.issue", "request_id", requestID, "roll_no", p.RollNo)

	st, err := s.Repo.FindStudentByID(ctx, p.StudentID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: student", ErrNotFound)
	}
	if err != nil {
		l.Error("certificate_issue_failed", "status", 500, "error", err)
		return nil, err
	}
	if err := verified(st); err != nil {
		l.Warn("certificate_issue_failed", "status", 403, "reason", err.Error())
		return nil, err
	}

	req, err := s.Repo.GetRequest(ctx, requestID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && req.StudentID != st.ID) {
		return nil, fmt.Errorf("%w: request", ErrNotFound)
	}
	if err != nil {
		l.Error("certificate_issue_failed", "status", 500, "error", err)
		return nil, err
	}
	if req.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: certificate not available for download", ErrNotAllowed)
	}

	certID := CertificateID(s.Secret, st.RollNo, req.CertificateType)
	if req.CertificateID != certID {
		if err := s.Repo.SetCertificateID(ctx, req.RequestID, certID); err != nil {
			l.Error("certificate_issue_failed", "status", 500, "error", err)
			return nil, err
		}
	}
	l.Info("certificate_issued", "certificate_id", certID)

	q := url.Values{"id": {certID}, "roll": {st.RollNo}}
	return &IssuedCertificate{
		CertificateID:   certID,
		CertificateType: req.CertificateType,
		Name:            st.Name,
		RollNo:          st.RollNo,
		IssuedAt:        req.CompletedAt,
		VerifyPath:      "/verify?" + q.Encode(),
	}, nil
}

// Verify checks a certificate id presented by a third party. Unknown or
// unapproved certificates are reported as invalid, not as errors. Each
// successful lookup is recorded.
func (s *CertificateService) Verify(ctx context.Context, certID, rollNo, ip, userAgent string) (*VerifyResult, error) {
	l := logging.FromContext(ctx).With("svc", "certificates.verify", "certificate_id", certID)

	certID = strings.ToUpper(strings.TrimSpace(certID))
	rollNo = strings.ToUpper(strings.TrimSpace(rollNo))
	if certID == "" || rollNo == "" {
		return nil, fmt.Errorf("%w: cert_id and roll_no are required", ErrValidation)
	}

	cert, err := s.Repo.FindIssuedCertificate(ctx, certID, rollNo)
	if errors.Is(err, repo.ErrNotFound) {
		l.Info("certificate_not_verified")
		return &VerifyResult{Valid: false}, nil
	}
	if err != nil {
		l.Error("certificate_verify_failed", "status", 500, "error", err)
		return nil, err
	}

	if err := s.Repo.RecordVerification(ctx, &models.CertificateVerification{
		RequestID: cert.RequestID,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		l.Warn("certificate_verification_log_failed", "error", err)
	}

	issued := "N/A"
	if cert.CompletedAt != nil {
		issued = cert.CompletedAt.Format("02/01/2006")
	}
	return &VerifyResult{
		Valid: true,
		Details: &CertificateDetails{
			Name:      cert.Name,
			RollNo:    cert.RollNo,
			CertID:    cert.CertificateID,
			IssueDate: issued,
			Type:      cert.CertificateType,
		},
	}, nil
}
