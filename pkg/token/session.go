package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type SessionClaims struct {
	jwt.RegisteredClaims

	Role string `json:"role,omitempty"`
}

type VerifiedSession struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// Verify checks an HS256 session token and returns the user it was issued to.
// audience is only enforced when non-empty.
func Verify(tokenString, secret, audience string, now time.Time) (*VerifiedSession, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing token secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &SessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}

	if audience != "" && !audContains(claims.Audience, audience) {
		return nil, fmt.Errorf("audience mismatch")
	}

	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return nil, fmt.Errorf("missing subject in token")
	}

	return &VerifiedSession{
		UserID:    userID,
		Role:      NormalizeRole(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Issue signs a session token. Real sign-in lives outside this service; this is
// used by dev tooling and tests.
func Issue(userID, role, secret, audience string, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("missing token secret")
	}
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: NormalizeRole(role),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// NormalizeRole maps unknown or empty roles to RoleUser.
func NormalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

func audContains(aud []string, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
