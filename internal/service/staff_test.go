package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/college_portal/internal/hash"
)

func TestCreateClerk(t *testing.T) {
	svc := &StaffService{Repo: newTestRepo(t)}
	ctx := context.Background()

	c, err := svc.CreateClerk(ctx, NewClerk{Name: "Meena", Email: "Meena@College.test", EmployeeID: "E1", Role: "Admission", Password: "pw-meena"})
	require.NoError(t, err)
	assert.Equal(t, "meena@college.test", c.Email)
	assert.Equal(t, "admission", c.Role)
	assert.True(t, c.IsActive)
	assert.True(t, hash.CheckPassword(c.PasswordHash, "pw-meena"))

	_, err = svc.CreateClerk(ctx, NewClerk{Name: "Dup", Email: "meena@college.test", EmployeeID: "E2", Role: "faculty", Password: "pw"})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateClerk(ctx, NewClerk{Name: "Boss", Email: "boss@college.test", EmployeeID: "E3", Role: "admin", Password: "pw"})
	require.ErrorIs(t, err, ErrValidation)

	list, err := svc.ListClerks(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateClerk(t *testing.T) {
	svc := &StaffService{Repo: newTestRepo(t)}
	ctx := context.Background()
	c, err := svc.CreateClerk(ctx, NewClerk{Name: "Meena", Email: "meena@college.test", EmployeeID: "E1", Role: "admission", Password: "pw"})
	require.NoError(t, err)

	off := false
	role := "faculty"
	updated, err := svc.UpdateClerk(ctx, c.ID, ClerkPatch{IsActive: &off, Role: &role})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "faculty", updated.Role)

	bad := "super_admin"
	_, err = svc.UpdateClerk(ctx, c.ID, ClerkPatch{Role: &bad})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateClerk(ctx, c.ID, ClerkPatch{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateClerk(ctx, 999, ClerkPatch{IsActive: &off})
	require.ErrorIs(t, err, ErrNotFound)
}
