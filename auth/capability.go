// Package auth turns a signed admin token into a Capability the blog core can check.
//
// Session issuance lives outside this service. The only producer of tokens here is the `token`
// subcommand, used by the site owner to mint a bearer token for the authoring client.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/portfolio-site/backend/errs"
)

const RoleAdmin = "admin"

// Capability is the caller's verified authority. The zero value is an anonymous reader.
type Capability struct {
	admin   bool
	subject string
}

// Anonymous returns the capability of an unauthenticated reader.
func Anonymous() Capability {
	return Capability{}
}

func (c Capability) IsAdmin() bool {
	return c.admin
}

func (c Capability) Subject() string {
	return c.subject
}

// RequireAdmin fails with a 403 ApiErr unless c is an admin capability.
func (c Capability) RequireAdmin() error {
	if !c.admin {
		return errs.NewInsufficientRoleError(RoleAdmin)
	}
	return nil
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs admin tokens.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue returns an HS256 token for subject valid for ttl.
func (i *Issuer) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verifier checks admin tokens.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Verify validates signature, algorithm, issuer, expiry and role. Any failure is a 401 ApiErr.
func (v *Verifier) Verify(raw string) (Capability, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Anonymous(), errs.NewExpiredTokenError()
		}
		return Anonymous(), errs.NewInvalidTokenError(err)
	}
	if c.Role != RoleAdmin {
		return Anonymous(), errs.NewInvalidTokenError(fmt.Errorf("unexpected role %q", c.Role))
	}
	return Capability{admin: true, subject: c.Subject}, nil
}
