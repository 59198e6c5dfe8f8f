// Package common contains shared constants and sentinel errors used across
// GymKeeper components.
package common

const (
	// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "

	// TokenTypeBearer is the token_type value returned with every token pair.
	TokenTypeBearer = "Bearer"
)
