package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"store-catalog-service/internal/entity"
	"store-catalog-service/internal/repository"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// Compared against when the username does not exist, so a login miss costs
// the same as a wrong password and does not leak which usernames are taken.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type AccessClaims struct {
	Identity  int    `json:"identity"`
	IsAdmin   bool   `json:"is_admin"`
	Fresh     bool   `json:"fresh"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Identity  int    `json:"identity"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenRevoker remembers logged-out token ids until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	userRepo repository.UserRepository
	revoker  TokenRevoker
	secret   []byte
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repository.UserRepository, revoker TokenRevoker, secret []byte) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		revoker:  revoker,
		secret:   secret,
	}
}

// Login validates the credentials and issues a fresh access token plus a
// refresh token. Unknown usernames and wrong passwords are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
			return "", "", ErrInvalidCredentials
		}
		logger.Error().Err(err).Msgf("Error getting user %s", username)
		return "", "", storageError(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}

	accessToken, err = s.issueAccessToken(user, true)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = s.issueRefreshToken(user)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// RefreshAccessToken issues a non-fresh access token for the identity carried
// by an already-validated refresh token.
func (s *AuthService) RefreshAccessToken(ctx context.Context, identity int) (string, error) {
	user, err := s.userRepo.FindByID(ctx, identity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTokenInvalid
		}
		logger.Error().Err(err).Msgf("Error getting user by ID %d", identity)
		return "", storageError(err)
	}

	return s.issueAccessToken(user, false)
}

// Logout revokes the access token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *AccessClaims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}

// ParseAccessToken validates the signature, expiry and revocation state of an
// access token and returns its claims. Refresh tokens are rejected here even
// though they share the signing key.
func (s *AuthService) ParseAccessToken(ctx context.Context, tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenType != "access" {
		return nil, ErrTokenInvalid
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Error checking token revocation")
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// ParseRefreshToken validates a refresh token and returns its claims. Access
// tokens are rejected here even though they share the signing key.
func (s *AuthService) ParseRefreshToken(ctx context.Context, tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenType != "refresh" {
		return nil, ErrTokenInvalid
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Error checking token revocation")
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrTokenInvalid, t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}

	return nil
}

func (s *AuthService) issueAccessToken(user *entity.User, fresh bool) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		Identity:  user.ID,
		IsAdmin:   user.IsAdmin,
		Fresh:     fresh,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) issueRefreshToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		Identity:  user.ID,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
