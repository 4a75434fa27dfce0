package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/college_portal/internal/models"
)

// IssuedCertificate is the public view of an approved request that has a
// certificate id.
type IssuedCertificate struct {
	RequestID       uint
	CertificateID   string
	CertificateType string
	Name            string
	RollNo          string
	CompletedAt     *time.Time
}

func (r *GormRepo) SetCertificateID(ctx context.Context, requestID uint, certID string) error {
	res := r.DB.WithContext(ctx).Model(&models.StudentRequest{}).
		Where("request_id = ?", requestID).
		Update("certificate_id", certID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindIssuedCertificate looks up the most recent approved request carrying
// certID for the student with rollNo.
func (r *GormRepo) FindIssuedCertificate(ctx context.Context, certID, rollNo string) (*IssuedCertificate, error) {
	var out IssuedCertificate
	err := r.DB.WithContext(ctx).Model(&models.StudentRequest{}).
		Select("student_requests.request_id, student_requests.certificate_id, student_requests.certificate_type, "+
			"students.name, students.roll_no, student_requests.completed_at").
		Joins("JOIN students ON students.id = student_requests.student_id").
		Where("student_requests.certificate_id = ? AND students.roll_no = ? AND student_requests.status = ?",
			certID, rollNo, models.StatusApproved).
		Order("student_requests.completed_at DESC").
		Take(&out).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *GormRepo) RecordVerification(ctx context.Context, v *models.CertificateVerification) error {
	return r.DB.WithContext(ctx).Create(v).Error
}
