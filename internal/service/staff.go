package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/hash"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/models"
	"github.com/Skotchmaster/college_portal/internal/repo"
)

type StaffService struct {
	Repo *repo.GormRepo
}

type NewClerk struct {
	Name       string
	Email      string
	EmployeeID string
	Role       string
	Password   string
}

func (s *StaffService) CreateClerk(ctx context.Context, in NewClerk) (*models.Clerk, error) {
	l := logging.FromContext(ctx).With("svc", "staff.create_clerk", "email", in.Email)

	role, ok := authz.ParseClerkRole(strings.ToLower(strings.TrimSpace(in.Role)))
	if !ok {
		return nil, fmt.Errorf("%w: role must be one of admission, scholarship, faculty", ErrValidation)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("create_clerk_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	c := &models.Clerk{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		EmployeeID:   strings.TrimSpace(in.EmployeeID),
		Role:         string(role),
		PasswordHash: pwHash,
		IsActive:     true,
	}
	if err := s.Repo.CreateClerkIfNotExists(ctx, c); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			l.Warn("create_clerk_failed", "status", 409, "reason", "email already registered")
			return nil, fmt.Errorf("%w: clerk with this email already exists", ErrConflict)
		}
		l.Error("create_clerk_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("clerk_created", "clerk_id", c.ID, "role", c.Role)
	return c, nil
}

func (s *StaffService) ListClerks(ctx context.Context) ([]models.Clerk, error) {
	return s.Repo.ListClerks(ctx)
}

// ClerkPatch changes take effect at the clerk's next login; tokens already
// issued keep their role until they expire.
type ClerkPatch struct {
	IsActive *bool
	Role     *string
}

func (s *StaffService) UpdateClerk(ctx context.Context, id uint, patch ClerkPatch) (*models.Clerk, error) {
	updates := map[string]any{}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.Role != nil {
		role, ok := authz.ParseClerkRole(strings.ToLower(strings.TrimSpace(*patch.Role)))
		if !ok {
			return nil, fmt.Errorf("%w: role must be one of admission, scholarship, faculty", ErrValidation)
		}
		updates["role"] = string(role)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	c, err := s.Repo.UpdateClerk(ctx, id, updates)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: clerk", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("clerk_updated", "clerk_id", id, "is_active", c.IsActive, "role", c.Role)
	return c, nil
}
