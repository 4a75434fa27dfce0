package tokens

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewCodec_EmptySecret(t *testing.T) {
	t.Parallel()

	c, err := NewCodec(nil)
	require.ErrorIs(t, err, ErrEmptySecret)
	assert.Nil(t, c)
}

func TestCodec_IssueVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		claims Claims
	}{
		{name: "student", claims: Claims{Role: "student", RollNo: "21CS001", StudentID: 7, Email: "s@college.test"}},
		{name: "clerk", claims: Claims{Role: "scholarship", ClerkID: 3, Email: "c@college.test"}},
		{name: "admin", claims: Claims{Role: "admin"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			signed, issued, err := codec.Issue(tt.claims, time.Hour)
			require.NoError(t, err)
			require.NotEmpty(t, signed)

			got, err := codec.Verify(signed)
			require.NoError(t, err)

			assert.Equal(t, tt.claims.Role, got.Role)
			assert.Equal(t, tt.claims.RollNo, got.RollNo)
			assert.Equal(t, tt.claims.StudentID, got.StudentID)
			assert.Equal(t, tt.claims.ClerkID, got.ClerkID)
			assert.Equal(t, tt.claims.Email, got.Email)
			require.NotNil(t, got.ExpiresAt)
			require.NotNil(t, got.IssuedAt)
			assert.Equal(t, issued.ExpiresAt.Unix(), got.ExpiresAt.Unix())
			assert.Equal(t, issued.IssuedAt.Unix(), got.IssuedAt.Unix())
			assert.Equal(t, time.Hour, got.ExpiresAt.Sub(got.IssuedAt.Time))
		})
	}
}

func TestCodec_Verify_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer, err := NewCodec(testSecret, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)

	signed, _, err := issuer.Issue(Claims{Role: "admin"}, time.Hour)
	require.NoError(t, err)

	verifier, err := NewCodec(testSecret)
	require.NoError(t, err)

	got, err := verifier.Verify(signed)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_Verify_ExactlyAtExpiry(t *testing.T) {
	t.Parallel()

	start := time.Unix(1_700_000_000, 0)
	issuer, err := NewCodec(testSecret, WithClock(fixedClock(start)))
	require.NoError(t, err)
	signed, _, err := issuer.Issue(Claims{Role: "student"}, time.Hour)
	require.NoError(t, err)

	atExpiry, err := NewCodec(testSecret, WithClock(fixedClock(start.Add(time.Hour))))
	require.NoError(t, err)
	_, err = atExpiry.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	justBefore, err := NewCodec(testSecret, WithClock(fixedClock(start.Add(time.Hour-time.Second))))
	require.NoError(t, err)
	_, err = justBefore.Verify(signed)
	assert.NoError(t, err)
}

func TestCodec_Verify_WrongSecret(t *testing.T) {
	t.Parallel()

	other, err := NewCodec([]byte("another-secret"))
	require.NoError(t, err)
	signed, _, err := other.Issue(Claims{Role: "admin"}, time.Hour)
	require.NoError(t, err)

	codec, err := NewCodec(testSecret)
	require.NoError(t, err)
	got, err := codec.Verify(signed)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, errors.Is(err, ErrTokenExpired))
}

func TestCodec_Verify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testSecret)
	require.NoError(t, err)

	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = codec.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_Verify_RequiresExpiry(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testSecret)
	require.NoError(t, err)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_Verify_Malformed(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testSecret)
	require.NoError(t, err)

	signed, _, err := codec.Issue(Claims{Role: "student"}, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)

	for _, raw := range []string{"", "not-a-jwt", "a.b.c", parts[0] + "." + parts[1] + ".", parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))} {
		_, err := codec.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestCodec_Issue_NonPositiveTTL(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testSecret)
	require.NoError(t, err)
	_, _, err = codec.Issue(Claims{Role: "admin"}, 0)
	assert.Error(t, err)
}
