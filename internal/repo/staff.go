package repo

import (
	"context"

	"github.com/Skotchmaster/college_portal/internal/models"
)

func (r *GormRepo) FindClerkByEmail(ctx context.Context, email string) (*models.Clerk, error) {
	var c models.Clerk
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormRepo) FindClerkByID(ctx context.Context, id uint) (*models.Clerk, error) {
	var c models.Clerk
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormRepo) CreateClerkIfNotExists(ctx context.Context, c *models.Clerk) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", c.Email).FirstOrCreate(c)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *GormRepo) ListClerks(ctx context.Context) ([]models.Clerk, error) {
	var out []models.Clerk
	err := r.DB.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (r *GormRepo) UpdateClerk(ctx context.Context, id uint, updates map[string]any) (*models.Clerk, error) {
	res := r.DB.WithContext(ctx).Model(&models.Clerk{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindClerkByID(ctx, id)
}

func (r *GormRepo) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}
