// Package auth turns bearer tokens into domain principals.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"supplychain/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("authorization is required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the token payload issued by the identity service.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates an HS256 token and returns the principal it carries.
func (v *Verifier) Parse(tokenString string) (domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == 0 && claims.Subject != "" {
		userID, _ = strconv.ParseInt(claims.Subject, 10, 64)
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
	switch role {
	case domain.RoleAdmin, domain.RoleSales, domain.RolePurchaser:
	default:
		return domain.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	if userID <= 0 {
		return domain.Principal{}, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return domain.Principal{UserID: userID, Username: claims.Username, Role: role}, nil
}

// FromHeader extracts the token from an "Authorization: Bearer" value.
func (v *Verifier) FromHeader(header string) (domain.Principal, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return domain.Principal{}, ErrMissingToken
	}
	return v.Parse(strings.TrimSpace(parts[1]))
}

// Issue signs a token for p. Used by tooling and tests; production tokens come
// from the identity service.
func (v *Verifier) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   p.UserID,
		Username: p.Username,
		Role:     string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Allowed reports whether role is one of roles.
func Allowed(role domain.Role, roles ...domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
