package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mossy-p/callrelay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestAuthenticate_AcceptsValidToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token, err := Issue(testSecret, models.Principal{ID: models.NewIdentity("42"), Role: "caller"}, time.Hour, now)
	require.NoError(t, err)

	a := New(testSecret, "HS256", WithClock(fixedClock(now.Add(time.Minute))))
	p, err := a.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, models.NewIdentity("42"), p.ID)
	assert.Equal(t, "caller", p.Role)
}

func TestAuthenticate_NumericIDClaim(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   7,
		"role": "admin",
		"exp":  now.Add(time.Hour).Unix(),
	})
	token, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	p, err := New(testSecret, "", WithClock(fixedClock(now))).Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, models.NewNumericIdentity("7"), p.ID)
	assert.True(t, p.ID.IsNumeric())
	assert.Equal(t, "admin", p.Role)
}

func TestAuthenticate_Rejections(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	valid, err := Issue(testSecret, models.Principal{ID: models.NewIdentity("1")}, time.Hour, now)
	require.NoError(t, err)
	expired, err := Issue(testSecret, models.Principal{ID: models.NewIdentity("1")}, time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	wrongKey, err := Issue("other-secret", models.Principal{ID: models.NewIdentity("1")}, time.Hour, now)
	require.NoError(t, err)
	noID, err := Issue(testSecret, models.Principal{Role: "caller"}, time.Hour, now)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"id": "1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", ErrTokenRequired},
		{"whitespace", "   ", ErrTokenRequired},
		{"two segments", "abc.def", ErrInvalidToken},
		{"four segments", valid + ".extra", ErrInvalidToken},
		{"garbage", "a.b.c", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"wrong key", wrongKey, ErrInvalidToken},
		{"missing id", noID, ErrInvalidToken},
		{"unexpected algorithm", hs512, ErrInvalidToken},
	}

	a := New(testSecret, "HS256", WithClock(fixedClock(now)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", tok)

	tok, ok = BearerToken("bearer  xyz")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	_, ok = BearerToken("Basic dXNlcg==")
	assert.False(t, ok)

	_, ok = BearerToken("")
	assert.False(t, ok)
}
