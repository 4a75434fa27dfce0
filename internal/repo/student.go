package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/college_portal/internal/models"
)

func (r *GormRepo) FindStudentByRoll(ctx context.Context, rollNo string) (*models.Student, error) {
	var s models.Student
	if err := r.DB.WithContext(ctx).Where("roll_no = ?", rollNo).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormRepo) FindStudentByID(ctx context.Context, id uint) (*models.Student, error) {
	var s models.Student
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormRepo) SetStudentPassword(ctx context.Context, id uint, hash string) error {
	res := r.DB.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ListStudents(ctx context.Context, offset, limit int) ([]models.Student, error) {
	var out []models.Student
	err := r.DB.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

func (r *GormRepo) SaveStudentImage(ctx context.Context, img *models.StudentImage) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"photo", "content_type", "updated_at"}),
	}).Create(img).Error
}

func (r *GormRepo) GetStudentImageByRoll(ctx context.Context, rollNo string) (*models.StudentImage, error) {
	var img models.StudentImage
	err := r.DB.WithContext(ctx).
		Joins("JOIN students ON students.id = student_images.student_id").
		Where("students.roll_no = ?", rollNo).
		First(&img).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &img, nil
}

// UpdateStudentByRoll applies fields to the student with rollNo and
// returns the updated row.
func (r *GormRepo) UpdateStudentByRoll(ctx context.Context, rollNo string, fields map[string]any) (*models.Student, error) {
	var s models.Student
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("roll_no = ?", rollNo).First(&s).Error; err != nil {
			return notFound(err)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&s).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&s, s.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkEmailVerified stores email as the student's verified address.
func (r *GormRepo) MarkEmailVerified(ctx context.Context, id uint, email string) error {
	res := r.DB.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).
		Updates(map[string]any{"email": email, "is_email_verified": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EmailTaken reports whether another student already holds email.
func (r *GormRepo) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Student{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, err
}

// ListStudentsByRollPatterns pages through students whose roll number
// matches any of the LIKE patterns, ordered by roll number.
func (r *GormRepo) ListStudentsByRollPatterns(ctx context.Context, patterns []string, offset, limit int) (int64, []models.Student, error) {
	q := r.DB.WithContext(ctx).Model(&models.Student{})
	if len(patterns) > 0 {
		cond := r.DB.Where("roll_no LIKE ?", patterns[0])
		for _, p := range patterns[1:] {
			cond = cond.Or("roll_no LIKE ?", p)
		}
		q = q.Where(cond)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Student
	if err := q.Order("roll_no").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListRollNumbers(ctx context.Context, like string) ([]string, error) {
	var rolls []string
	q := r.DB.WithContext(ctx).Model(&models.Student{})
	if like != "" {
		q = q.Where("roll_no LIKE ?", like)
	}
	err := q.Order("roll_no").Pluck("roll_no", &rolls).Error
	return rolls, err
}

// CreateStudentIfNotExists inserts s unless its roll number is taken.
func (r *GormRepo) CreateStudentIfNotExists(ctx context.Context, s *models.Student) error {
	tx := r.DB.WithContext(ctx).Where("roll_no = ?", s.RollNo).FirstOrCreate(s)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}
