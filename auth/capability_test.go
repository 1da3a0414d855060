package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-site/backend/errs"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	token, err := NewIssuer(testSecret, "blog").Issue("owner", time.Hour)
	require.NoError(t, err)

	c, err := NewVerifier(testSecret, "blog").Verify(token)
	require.NoError(t, err)
	assert.True(t, c.IsAdmin())
	assert.Equal(t, "owner", c.Subject())
	assert.NoError(t, c.RequireAdmin())
}

func TestAnonymousIsNotAdmin(t *testing.T) {
	err := Anonymous().RequireAdmin()
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))
	assert.True(t, errs.IsInsufficientRoleError(err))
	assert.Equal(t, 403, errs.StatusCode(err))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer(testSecret, "blog").Issue("owner", time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("another-secret-another-secret-xx", "blog").Verify(token)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidTokenError(err))
	assert.Equal(t, 401, errs.StatusCode(err))
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	token, err := NewIssuer(testSecret, "someone-else").Issue("owner", time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier(testSecret, "blog").Verify(token)
	assert.True(t, errs.IsInvalidTokenError(err))
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer(testSecret, "blog")
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.Issue("owner", time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier(testSecret, "blog").Verify(token)
	assert.True(t, errs.IsExpiredTokenError(err))
}

func TestVerifyRejectsNonAdminRole(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: "reader",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "blog",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewVerifier(testSecret, "blog").Verify(signed)
	assert.True(t, errs.IsInvalidTokenError(err))
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "blog",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewVerifier(testSecret, "blog").Verify(signed)
	assert.True(t, errs.IsInvalidTokenError(err))
}

func TestIssueRejectsNonPositiveTTL(t *testing.T) {
	_, err := NewIssuer(testSecret, "blog").Issue("owner", 0)
	assert.Error(t, err)
}
