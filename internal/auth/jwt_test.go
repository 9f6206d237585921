package auth_test

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/bankly/internal/auth"
	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	for _, id := range []auth.Identity{
		{Username: "u1", IsAdmin: false},
		{Username: "u3", IsAdmin: true},
		{Username: "ünïcode-name", IsAdmin: false},
	} {
		token, err := m.Issue(id)
		require.NoError(t, err)

		claims, err := m.Verify(token)
		require.NoError(t, err)

		assert.Equal(t, id.Username, claims.Username)
		assert.Equal(t, id.IsAdmin, claims.IsAdmin)
	}
}

func TestManager_ExpiryIsIssuePlusTTL(t *testing.T) {
	issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := auth.NewManager("test-secret", 0, auth.WithClock(func() time.Time { return issuedAt }))

	token, err := m.Issue(auth.Identity{Username: "u1"})
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, issuedAt, claims.IssuedAt.Time.UTC())
	assert.Equal(t, issuedAt.Add(auth.DefaultTokenTTL), claims.ExpiresAt.Time.UTC())
}

func TestManager_IssueFor(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	token, err := m.IssueFor(user.User{Username: "u3", IsAdmin: true})
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u3", claims.Username)
	assert.True(t, claims.IsAdmin)
}

func TestManager_IssueRejectsInvalidIdentity(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	for _, name := range []string{"", "   "} {
		_, err := m.Issue(auth.Identity{Username: name})
		assert.ErrorIs(t, err, auth.ErrInvalidIdentity)
	}
}

func TestManager_VerifyMalformed(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	for _, raw := range []string{
		"",
		"invalidToken",
		"a.b",
		"a.b.c.d",
		"..",
		"not.a.jwt",
	} {
		_, err := m.Verify(raw)
		assert.ErrorIs(t, err, auth.ErrMalformedToken, "token %q", raw)
	}
}

func TestManager_VerifyAlteredSignature(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	token, err := m.Issue(auth.Identity{Username: "u1"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	// flip the first char so the decoded bytes change
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = m.Verify(tampered)
	assert.ErrorIs(t, err, auth.ErrInvalidSignature)
}

func TestManager_VerifyAlteredPayload(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	token, err := m.Issue(auth.Identity{Username: "u1", IsAdmin: false})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	exp := time.Now().Add(time.Hour).Unix()
	forged := base64.RawURLEncoding.EncodeToString(
		[]byte(`{"username":"u1","is_admin":true,"exp":` + strconv.FormatInt(exp, 10) + `}`),
	)

	_, err = m.Verify(parts[0] + "." + forged + "." + parts[2])
	assert.ErrorIs(t, err, auth.ErrInvalidSignature)
}

func TestManager_VerifyWrongKey(t *testing.T) {
	issuer := auth.NewManager("key-one", time.Hour)
	verifier := auth.NewManager("key-two", time.Hour)

	token, err := issuer.Issue(auth.Identity{Username: "u1"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSignature)
}

func TestManager_VerifyWrongAlgorithm(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"username": "u1",
		"is_admin": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(s)
	assert.ErrorIs(t, err, auth.ErrInvalidSignature)
}

func TestManager_VerifyExpired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := auth.NewManager("test-secret", time.Hour, auth.WithClock(func() time.Time { return past }))
	verifier := auth.NewManager("test-secret", time.Hour)

	token, err := issuer.Issue(auth.Identity{Username: "u1"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrExpired)
}

func TestManager_VerifyRequiresExpiry(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "u1", "is_admin": false})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(s)
	assert.Error(t, err)
}
