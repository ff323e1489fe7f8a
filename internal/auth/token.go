package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/repository"
)

// ErrInvalidToken covers malformed, unsigned, expired tokens and tokens whose
// subject no longer resolves to an active user.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	users  repository.UserRepository
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, users repository.UserRepository) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, users: users}
}

// Claims describes the JWT payload.
type Claims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue builds and signs a JWT for the user, returning the signed string and
// the issuance metadata baked into its claims.
func (tm *TokenManager) Issue(user *domain.User) (string, domain.Token, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique id makes every issued token distinct, even for the
			// same subject within the same second.
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", domain.Token{}, err
	}
	meta := domain.Token{
		SubjectID: user.ID,
		Username:  user.Username,
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	return tokenString, meta, nil
}

// Verify validates the raw token and re-resolves the subject from the store.
// Role and active status embedded in the claims are never trusted: the live
// record decides, so deactivating a user voids all outstanding tokens without
// a revocation list. An optional "Bearer " scheme prefix is stripped.
func (tm *TokenManager) Verify(ctx context.Context, rawToken string) (*domain.User, error) {
	tokenStr := StripBearer(rawToken)
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims, err := tm.parse(tokenStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := tm.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (tm *TokenManager) parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// StripBearer removes a leading "Bearer " scheme from a credential value.
func StripBearer(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
