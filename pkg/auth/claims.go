package auth

import (
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is the identity minted into an access token.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	AccessID string
}

// AccessTokenClaims is the JWT claim set carried by access tokens.
type AccessTokenClaims struct {
	UserID   string `json:"uid"`
	Role     string `json:"role"`
	AccessID string `json:"aid,omitempty"`
	jwt.RegisteredClaims
}

// Payload converts raw claims back into a typed payload.
func (c *AccessTokenClaims) Payload() (AccessTokenPayload, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return AccessTokenPayload{}, err
	}
	role, err := enums.ParseUserRole(c.Role)
	if err != nil {
		return AccessTokenPayload{}, err
	}
	return AccessTokenPayload{
		UserID:   userID,
		Role:     role,
		AccessID: c.AccessID,
	}, nil
}
