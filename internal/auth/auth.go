package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
)

const RoleAdmin = "admin"

// Requester is the authenticated caller of an operation.
type Requester struct {
	UserID int64
	Role   string
}

func (r Requester) IsAdmin() bool { return r.Role == RoleAdmin }

// CanAccess reports whether the requester may read data owned by ownerID.
func (r Requester) CanAccess(ownerID int64) bool {
	return r.IsAdmin() || r.UserID == ownerID
}

// Claims is the token body issued by the auth service: {"id": 7, "role": "user"}.
type Claims struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})),
	}
}

// Verify parses a raw token and returns the requester it identifies.
func (v *Verifier) Verify(raw string) (Requester, error) {
	var claims Claims
	token, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Requester{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, err)
	}
	if !token.Valid || claims.ID <= 0 {
		return Requester{}, fmt.Errorf("%w: token carries no user", apperr.ErrUnauthorized)
	}
	return Requester{UserID: claims.ID, Role: claims.Role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("missing bearer token")
	}
	return strings.TrimSpace(token), nil
}

type ctxKey struct{}

func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the requester stored by the auth middleware.
func FromContext(ctx context.Context) (Requester, bool) {
	r, ok := ctx.Value(ctxKey{}).(Requester)
	return r, ok
}
