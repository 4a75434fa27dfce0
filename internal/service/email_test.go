package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/college_portal/internal/models"
	"github.com/Skotchmaster/college_portal/internal/otpstore"
)

func newTestEmailService(t *testing.T) (*EmailService, *fakePublisher) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	pub := &fakePublisher{}
	return &EmailService{Repo: newTestRepo(t), Codes: otpstore.New(rdb), Events: pub}, pub
}

func lastOTP(t *testing.T, pub *fakePublisher) OTPRequestedEvent {
	t.Helper()
	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.NotEmpty(t, pub.events)
	ev, ok := pub.events[len(pub.events)-1].Event.(OTPRequestedEvent)
	require.True(t, ok)
	return ev
}

func TestSendVerificationOTPThenVerify(t *testing.T) {
	svc, pub := newTestEmailService(t)
	ctx := context.Background()
	st := seedStudent(t, svc.Repo, models.Student{RollNo: "21567T0901", Name: "Asha", Email: "asha@college.test"})

	require.NoError(t, svc.SendVerificationOTP(ctx, "21567t0901"))
	ev := lastOTP(t, pub)
	assert.Equal(t, "email_otp_requested", ev.Type)
	assert.Equal(t, "asha@college.test", ev.Email)
	assert.Len(t, ev.Code, 6)
	assert.Equal(t, MailTopic, pub.events[0].Topic)

	err := svc.VerifyOTP(ctx, studentPrincipal(st), "asha@college.test", "000000x")
	require.ErrorIs(t, err, ErrOTPInvalid)

	require.NoError(t, svc.VerifyOTP(ctx, studentPrincipal(st), "Asha@College.test", ev.Code))
	got, err := svc.Repo.FindStudentByID(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)

	err = svc.VerifyOTP(ctx, studentPrincipal(st), "asha@college.test", ev.Code)
	require.ErrorIs(t, err, ErrOTPInvalid)
}

func TestSendVerificationOTPNeedsEmailOnRecord(t *testing.T) {
	svc, pub := newTestEmailService(t)
	ctx := context.Background()
	seedStudent(t, svc.Repo, models.Student{RollNo: "21567T0902", Name: "Ravi"})

	require.ErrorIs(t, svc.SendVerificationOTP(ctx, "21567T0902"), ErrNotFound)
	require.ErrorIs(t, svc.SendVerificationOTP(ctx, "21567T0999"), ErrNotFound)
	require.ErrorIs(t, svc.SendVerificationOTP(ctx, " "), ErrValidation)
	assert.Empty(t, pub.events)
}

func TestUpdateEmailOTP(t *testing.T) {
	svc, pub := newTestEmailService(t)
	ctx := context.Background()
	st := seedStudent(t, svc.Repo, models.Student{RollNo: "21567T0903", Name: "Meera", Email: "old@college.test"})
	seedStudent(t, svc.Repo, models.Student{RollNo: "21567T0904", Name: "Kiran", Email: "kiran@college.test"})
	p := studentPrincipal(st)

	require.ErrorIs(t, svc.SendUpdateOTP(ctx, p, "not-an-email"), ErrValidation)
	require.ErrorIs(t, svc.SendUpdateOTP(ctx, p, "KIRAN@college.test"), ErrConflict)

	require.NoError(t, svc.SendUpdateOTP(ctx, p, "meera@college.test"))
	ev := lastOTP(t, pub)
	assert.Equal(t, "meera@college.test", ev.Email)

	// a code is only good for the address it was sent to
	err := svc.VerifyOTP(ctx, p, "other@college.test", ev.Code)
	require.ErrorIs(t, err, ErrOTPInvalid)

	require.NoError(t, svc.SendUpdateOTP(ctx, p, "meera@college.test"))
	ev = lastOTP(t, pub)
	require.NoError(t, svc.VerifyOTP(ctx, p, "meera@college.test", ev.Code))

	got, err := svc.Repo.FindStudentByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "meera@college.test", got.Email)
	assert.True(t, got.IsEmailVerified)
}
