package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/college_portal/internal/db/dbtest"
	"github.com/Skotchmaster/college_portal/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return New(dbtest.Open(t))
}

func seedStudent(t *testing.T, r *GormRepo, roll string) *models.Student {
	t.Helper()
	s := &models.Student{RollNo: roll, Name: "Student " + roll, Email: roll + "@college.test"}
	require.NoError(t, r.DB.Create(s).Error)
	return s
}

func TestStudentLookups(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	s := seedStudent(t, r, "21CS001")

	got, err := r.FindStudentByRoll(ctx, "21CS001")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = r.FindStudentByRoll(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.SetStudentPassword(ctx, s.ID, "hash"))
	got, err = r.FindStudentByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	require.ErrorIs(t, r.SetStudentPassword(ctx, 999, "hash"), ErrNotFound)
}

func TestListStudentsPages(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	for _, roll := range []string{"A1", "A2", "A3"} {
		seedStudent(t, r, roll)
	}

	page, err := r.ListStudents(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "A1", page[0].RollNo)

	page, err = r.ListStudents(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "A3", page[0].RollNo)
}

func TestStudentImageUpsert(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	s := seedStudent(t, r, "21CS002")

	require.NoError(t, r.SaveStudentImage(ctx, &models.StudentImage{StudentID: s.ID, Photo: []byte("one"), ContentType: "image/png"}))
	require.NoError(t, r.SaveStudentImage(ctx, &models.StudentImage{StudentID: s.ID, Photo: []byte("two"), ContentType: "image/jpeg"}))

	img, err := r.GetStudentImageByRoll(ctx, "21CS002")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), img.Photo)
	assert.Equal(t, "image/jpeg", img.ContentType)

	var n int64
	require.NoError(t, r.DB.Model(&models.StudentImage{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	_, err = r.GetStudentImageByRoll(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClerkLifecycle(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	c := &models.Clerk{Name: "Meena", Email: "meena@college.test", EmployeeID: "E1", Role: "admission", PasswordHash: "h", IsActive: true}
	require.NoError(t, r.CreateClerkIfNotExists(ctx, c))
	assert.NotZero(t, c.ID)

	dup := &models.Clerk{Name: "Other", Email: "meena@college.test", EmployeeID: "E2", Role: "faculty", PasswordHash: "h"}
	require.ErrorIs(t, r.CreateClerkIfNotExists(ctx, dup), ErrAlreadyExists)

	got, err := r.FindClerkByEmail(ctx, "meena@college.test")
	require.NoError(t, err)
	assert.Equal(t, "admission", got.Role)

	updated, err := r.UpdateClerk(ctx, c.ID, map[string]any{"is_active": false, "role": "scholarship"})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "scholarship", updated.Role)

	_, err = r.UpdateClerk(ctx, 999, map[string]any{"is_active": false})
	require.ErrorIs(t, err, ErrNotFound)

	all, err := r.ListClerks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAdminLookup(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, r.DB.Create(&models.Admin{Email: "root@college.test", Role: "super_admin", PasswordHash: "h"}).Error)

	a, err := r.FindAdminByEmail(ctx, "root@college.test")
	require.NoError(t, err)
	assert.Equal(t, "super_admin", a.Role)

	_, err = r.FindAdminByEmail(ctx, "x@college.test")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequestFlow(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	s := seedStudent(t, r, "21CS003")

	req := &models.StudentRequest{
		StudentID:       s.ID,
		RollNo:          s.RollNo,
		CertificateType: "Bonafide",
		ClerkType:       "admission",
		Status:          models.StatusPending,
		PaymentAmount:   100,
		TransactionID:   "TXN1",
	}
	shot := &models.StudentRequestImage{PaymentScreenshot: []byte("png"), ContentType: "image/png"}
	require.NoError(t, r.CreateRequest(ctx, req, shot))
	require.NotZero(t, req.RequestID)

	owner, err := r.RequestOwner(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, owner.StudentID)
	assert.Equal(t, "admission", owner.ClerkType)

	_, err = r.RequestOwner(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)

	img, err := r.GetRequestImage(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), img.PaymentScreenshot)

	total, items, err := r.ListRequestsByStudent(ctx, s.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	total, _, err = r.ListRequestsByClerkType(ctx, "scholarship", "", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	now := time.Now().UTC()
	require.NoError(t, r.UpdateRequestStatus(ctx, req.RequestID, StatusUpdate{
		Status:       models.StatusRejected,
		RejectReason: "blurry screenshot",
		ClerkID:      5,
		ClerkRole:    "admission",
		At:           now,
	}))
	got, err := r.GetRequest(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "blurry screenshot", got.RejectReason)
	require.NotNil(t, got.ActionByClerkID)
	assert.EqualValues(t, 5, *got.ActionByClerkID)
	require.NotNil(t, got.CompletedAt)

	total, items, err = r.ListRequestsByClerkType(ctx, "admission", models.StatusRejected, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, req.RequestID, items[0].RequestID)

	require.ErrorIs(t, r.UpdateRequestStatus(ctx, 999, StatusUpdate{Status: models.StatusApproved, At: now}), ErrNotFound)
}

func TestCreateRequestWithoutScreenshot(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	s := seedStudent(t, r, "21CS004")

	req := &models.StudentRequest{StudentID: s.ID, RollNo: s.RollNo, CertificateType: "Custodian", ClerkType: "scholarship", Status: models.StatusPending}
	require.NoError(t, r.CreateRequest(ctx, req, nil))

	_, err := r.GetRequestImage(ctx, req.RequestID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStudentRecordUpdates(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	s := seedStudent(t, r, "21567T0901")
	other := seedStudent(t, r, "21567T0902")

	got, err := r.UpdateStudentByRoll(ctx, s.RollNo, map[string]any{"phone": "9876543210", "gender": "F"})
	require.NoError(t, err)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Equal(t, "F", got.Gender)
	assert.Equal(t, s.Name, got.Name)

	_, err = r.UpdateStudentByRoll(ctx, "missing", map[string]any{"phone": "1"})
	require.ErrorIs(t, err, ErrNotFound)

	taken, err := r.EmailTaken(ctx, strings.ToUpper(other.Email), s.ID)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = r.EmailTaken(ctx, s.Email, s.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, r.MarkEmailVerified(ctx, s.ID, "new@mail.test"))
	got, err = r.FindStudentByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)
	assert.Equal(t, "new@mail.test", got.Email)
	require.ErrorIs(t, r.MarkEmailVerified(ctx, 999, "x@mail.test"), ErrNotFound)
}

func TestStudentRollQueries(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	for _, roll := range []string{"21567T0902", "21567T0901", "215670903L", "21567T1501", "22567T0901"} {
		seedStudent(t, r, roll)
	}

	total, items, err := r.ListStudentsByRollPatterns(ctx, []string{"21567T09__", "2156709__L"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, "215670903L", items[0].RollNo)
	assert.Equal(t, "21567T0901", items[1].RollNo)

	rolls, err := r.ListRollNumbers(ctx, "21567T%")
	require.NoError(t, err)
	assert.Equal(t, []string{"21567T0901", "21567T0902", "21567T1501"}, rolls)

	all, err := r.ListRollNumbers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	dup := &models.Student{RollNo: "22567T0901", Name: "Dup"}
	require.ErrorIs(t, r.CreateStudentIfNotExists(ctx, dup), ErrAlreadyExists)
	fresh := &models.Student{RollNo: "22567T0902", Name: "Fresh"}
	require.NoError(t, r.CreateStudentIfNotExists(ctx, fresh))
	assert.NotZero(t, fresh.ID)
}

func TestIssuedCertificateLookup(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	s := seedStudent(t, r, "21567T0901")
	req := &models.StudentRequest{StudentID: s.ID, RollNo: s.RollNo, CertificateType: "Bonafide Certificate", ClerkType: "admission", Status: models.StatusPending}
	require.NoError(t, r.CreateRequest(ctx, req, nil))
	require.NoError(t, r.SetCertificateID(ctx, req.RequestID, "KUCET-ABCD1234"))

	_, err := r.FindIssuedCertificate(ctx, "KUCET-ABCD1234", s.RollNo)
	require.ErrorIs(t, err, ErrNotFound, "pending requests are not issued")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, r.UpdateRequestStatus(ctx, req.RequestID, StatusUpdate{Status: models.StatusApproved, ClerkID: 1, ClerkRole: "admission", At: at}))

	got, err := r.FindIssuedCertificate(ctx, "KUCET-ABCD1234", s.RollNo)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, got.RequestID)
	assert.Equal(t, s.Name, got.Name)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, at.Equal(*got.CompletedAt))

	_, err = r.FindIssuedCertificate(ctx, "KUCET-ABCD1234", "21567T0999")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.RecordVerification(ctx, &models.CertificateVerification{RequestID: req.RequestID, IPAddress: "10.0.0.1"}))
	var n int64
	require.NoError(t, r.DB.Model(&models.CertificateVerification{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	require.ErrorIs(t, r.SetCertificateID(ctx, 999, "X"), ErrNotFound)
}
