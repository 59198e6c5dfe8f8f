// Package auth implements the signed-token codec: minting and parsing of
// HS256 access and refresh tokens with the claim layout the rest of the
// system relies on (subject, role, jti).
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gymkeeper/internal/common"
	"gymkeeper/internal/server/models"
)

// refreshTokenType marks refresh tokens so an access token can never be
// replayed on the refresh endpoint even if the keys were ever unified.
const refreshTokenType = "refresh"

// AccessClaims is the payload of an access token. The registered Subject
// carries the user's email, ID/ExpiresAt/IssuedAt the usual registered
// claims; UserID, Role and Email are the custom claims authorization relies on.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	Email  string      `json:"email"`
}

// RefreshClaims is the deliberately minimal payload of a refresh token.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId"`
	TokenType string `json:"type"`
}

// Minted describes a freshly signed token.
type Minted struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

var validMethods = jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})

// GenerateAccessToken signs an access token for the user with a fresh jti.
func GenerateAccessToken(user *models.User, key []byte, validity time.Duration) (*Minted, error) {
	now := time.Now()
	expiresAt := now.Add(validity)
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return nil, err
	}
	return &Minted{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// GenerateRefreshToken signs a refresh token for the user id.
func GenerateRefreshToken(userID string, key []byte, validity time.Duration) (*Minted, error) {
	now := time.Now()
	expiresAt := now.Add(validity)
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    userID,
		TokenType: refreshTokenType,
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return nil, err
	}
	return &Minted{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
// Expired tokens yield common.ErrTokenExpired, everything else structurally
// or cryptographically wrong yields common.ErrInvalidToken.
func ParseAccessToken(tokenString string, key []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, validMethods)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// ParseRefreshToken verifies signature, expiry, and the refresh type marker.
func ParseRefreshToken(tokenString string, key []byte) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, validMethods)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid || claims.UserID == "" || claims.TokenType != refreshTokenType {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func mapParseError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return common.ErrTokenExpired
	}
	return common.ErrInvalidToken
}
