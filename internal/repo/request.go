package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/college_portal/internal/models"
)

// RequestOwner is the owning-key projection of a request used by
// authorization checks.
type RequestOwner struct {
	RequestID uint
	StudentID uint
	ClerkType string
}

func (r *GormRepo) CreateRequest(ctx context.Context, req *models.StudentRequest, screenshot *models.StudentRequestImage) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		if screenshot == nil {
			return nil
		}
		screenshot.RequestID = req.RequestID
		return tx.Create(screenshot).Error
	})
}

func (r *GormRepo) RequestOwner(ctx context.Context, requestID uint) (*RequestOwner, error) {
	var owner RequestOwner
	err := r.DB.WithContext(ctx).Model(&models.StudentRequest{}).
		Select("request_id, student_id, clerk_type").
		Where("request_id = ?", requestID).
		Take(&owner).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &owner, nil
}

func (r *GormRepo) GetRequest(ctx context.Context, requestID uint) (*models.StudentRequest, error) {
	var req models.StudentRequest
	if err := r.DB.WithContext(ctx).First(&req, requestID).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *GormRepo) ListRequestsByStudent(ctx context.Context, studentID uint, offset, limit int) (int64, []models.StudentRequest, error) {
	q := r.DB.WithContext(ctx).Model(&models.StudentRequest{}).Where("student_id = ?", studentID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.StudentRequest
	if err := q.Order("created_at DESC, request_id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListRequestsByClerkType(ctx context.Context, clerkType, status string, offset, limit int) (int64, []models.StudentRequest, error) {
	q := r.DB.WithContext(ctx).Model(&models.StudentRequest{}).Where("clerk_type = ?", clerkType)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.StudentRequest
	if err := q.Order("created_at DESC, request_id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

type StatusUpdate struct {
	Status       string
	Purpose      string
	RejectReason string
	ClerkID      uint
	ClerkRole    string
	At           time.Time
}

func (r *GormRepo) UpdateRequestStatus(ctx context.Context, requestID uint, u StatusUpdate) error {
	updates := map[string]any{
		"status":     u.Status,
		"updated_at": u.At,
	}
	switch u.Status {
	case models.StatusPending:
		updates["completed_at"] = nil
	case models.StatusApproved:
		updates["purpose"] = u.Purpose
		updates["reject_reason"] = ""
		updates["completed_at"] = u.At
		updates["action_by_clerk_id"] = u.ClerkID
		updates["action_by_role"] = u.ClerkRole
	case models.StatusRejected:
		updates["reject_reason"] = u.RejectReason
		updates["completed_at"] = u.At
		updates["action_by_clerk_id"] = u.ClerkID
		updates["action_by_role"] = u.ClerkRole
	}

	res := r.DB.WithContext(ctx).Model(&models.StudentRequest{}).Where("request_id = ?", requestID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) GetRequestImage(ctx context.Context, requestID uint) (*models.StudentRequestImage, error) {
	var img models.StudentRequestImage
	if err := r.DB.WithContext(ctx).Where("request_id = ?", requestID).First(&img).Error; err != nil {
		return nil, notFound(err)
	}
	return &img, nil
}
