// Package identity turns bearer tokens issued by the campus auth service into
// the actor id and role the services act on.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Identity is the authenticated caller of one request.
type Identity struct {
	StudentID string
	Role      Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

var (
	// ErrInvalidToken signals a token that is malformed, expired or signed with another key.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrMissingSecret signals a verifier or issuer built without a signing key.
	ErrMissingSecret = errors.New("identity: signing secret required")
)

// Claims is the token payload: the standard claims plus the caller's role.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

func (v *Verifier) Verify(tokenString string) (Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Identity{}, ErrInvalidToken
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: invalid role %q", ErrInvalidToken, claims.Role)
	}
	return Identity{StudentID: claims.Subject, Role: claims.Role}, nil
}

// Issuer signs tokens the Verifier accepts. The API never issues tokens
// itself; tooling and tests do.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Issue(studentID string, role Role, ttl time.Duration) (string, error) {
	if strings.TrimSpace(studentID) == "" {
		return "", fmt.Errorf("identity: student id required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("identity: invalid role %q", role)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := i.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   studentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}
