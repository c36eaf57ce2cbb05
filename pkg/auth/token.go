package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

// TokenManager mints and validates HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return nil, errors.New("jwt expiration must be positive")
	}
	return &TokenManager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.ExpirationMinutes) * time.Minute,
		now:    time.Now,
	}, nil
}

// Mint produces a signed access token for the given payload.
func (m *TokenManager) Mint(payload AccessTokenPayload) (string, error) {
	if payload.UserID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}
	now := m.now()
	claims := AccessTokenClaims{
		UserID:   payload.UserID.String(),
		Role:     payload.Role.String(),
		AccessID: payload.AccessID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its payload.
func (m *TokenManager) Parse(raw string) (AccessTokenPayload, error) {
	return m.parse(raw, true)
}

// ParseAllowExpired validates everything except the expiry, used for refresh.
func (m *TokenManager) ParseAllowExpired(raw string) (AccessTokenPayload, error) {
	return m.parse(raw, false)
}

func (m *TokenManager) parse(raw string, checkExpiry bool) (AccessTokenPayload, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
	}
	if !checkExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	var claims AccessTokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessTokenPayload{}, ErrTokenExpired
		}
		return AccessTokenPayload{}, ErrTokenInvalid
	}
	if !token.Valid && checkExpiry {
		return AccessTokenPayload{}, ErrTokenInvalid
	}
	if !checkExpiry {
		if claims.Issuer != m.issuer {
			return AccessTokenPayload{}, ErrTokenInvalid
		}
	}
	payload, err := claims.Payload()
	if err != nil {
		return AccessTokenPayload{}, ErrTokenInvalid
	}
	return payload, nil
}

// TTL exposes the configured access token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}
