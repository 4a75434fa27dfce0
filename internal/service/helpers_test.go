package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/db/dbtest"
	"github.com/Skotchmaster/college_portal/internal/hash"
	"github.com/Skotchmaster/college_portal/internal/models"
	"github.com/Skotchmaster/college_portal/internal/repo"
	"github.com/Skotchmaster/college_portal/internal/session"
)

type published struct {
	Topic string
	Key   string
	Event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{Topic: topic, Key: key, Event: event})
	return f.err
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(dbtest.Open(t))
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := hash.HashPassword(pw)
	require.NoError(t, err)
	return h
}

func seedStudent(t *testing.T, r *repo.GormRepo, s models.Student) *models.Student {
	t.Helper()
	require.NoError(t, r.DB.Create(&s).Error)
	return &s
}

func dob(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func studentPrincipal(s *models.Student) *authz.Principal {
	return &authz.Principal{Kind: session.KindStudent, Role: authz.RoleStudent, StudentID: s.ID, RollNo: s.RollNo}
}

func clerkPrincipal(id uint, role authz.Role) *authz.Principal {
	return &authz.Principal{Kind: session.KindClerk, Role: role, ClerkID: id}
}
