package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/models"
	"github.com/Skotchmaster/college_portal/internal/repo"
	"github.com/Skotchmaster/college_portal/internal/search"
)

const (
	MaxPhotoBytes = 2 << 20
	reindexBatch  = 500
)

var photoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type StudentService struct {
	Repo   *repo.GormRepo
	Search *search.Students
	Now    func() time.Time
}

func (s *StudentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *StudentService) Profile(ctx context.Context, p *authz.Principal) (*models.Student, error) {
	st, err := s.Repo.FindStudentByID(ctx, p.StudentID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: student", ErrNotFound)
	}
	return st, err
}

// UploadPhoto stores the student's profile photo. The content type is
// sniffed from the bytes rather than trusted from the client.
func (s *StudentService) UploadPhoto(ctx context.Context, p *authz.Principal, data []byte) (*models.StudentImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: photo is empty", ErrValidation)
	}
	if len(data) > MaxPhotoBytes {
		return nil, fmt.Errorf("%w: photo exceeds 2MB", ErrValidation)
	}
	ct := http.DetectContentType(data)
	if !photoTypes[ct] {
		return nil, fmt.Errorf("%w: unsupported image type %s", ErrValidation, ct)
	}

	img := &models.StudentImage{StudentID: p.StudentID, Photo: data, ContentType: ct}
	if err := s.Repo.SaveStudentImage(ctx, img); err != nil {
		logging.FromContext(ctx).Error("photo_upload_failed", "status", 500, "roll_no", p.RollNo, "error", err)
		return nil, err
	}
	return img, nil
}

func (s *StudentService) Photo(ctx context.Context, rollNo string) (*models.StudentImage, error) {
	img, err := s.Repo.GetStudentImageByRoll(ctx, rollNo)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: photo", ErrNotFound)
	}
	return img, err
}

// OwnsRoll admits a student only for their own roll number.
func OwnsRoll(rollNo string) authz.OwnerCheck {
	return func(_ context.Context, p *authz.Principal) (bool, error) {
		return rollNo != "" && p.RollNo == rollNo, nil
	}
}

func (s *StudentService) Find(ctx context.Context, query string, from, size int) (int64, []search.StudentDoc, error) {
	total, docs, err := s.Search.Search(ctx, query, from, size)
	if errors.Is(err, search.ErrEmptyQuery) {
		return 0, nil, fmt.Errorf("%w: q is required", ErrValidation)
	}
	return total, docs, err
}

// Reindex pushes every student to the search index in batches and returns
// how many documents the cluster accepted.
func (s *StudentService) Reindex(ctx context.Context) (int, error) {
	l := logging.FromContext(ctx).With("svc", "students.reindex")

	indexed := 0
	for offset := 0; ; offset += reindexBatch {
		batch, err := s.Repo.ListStudents(ctx, offset, reindexBatch)
		if err != nil {
			l.Error("reindex_failed", "offset", offset, "error", err)
			return indexed, err
		}
		if len(batch) == 0 {
			break
		}
		n, err := s.Search.IndexStudents(ctx, batch)
		if err != nil {
			l.Error("reindex_failed", "offset", offset, "error", err)
			return indexed, err
		}
		indexed += n
		if len(batch) < reindexBatch {
			break
		}
	}
	l.Info("reindex_done", "indexed", indexed)
	return indexed, nil
}
