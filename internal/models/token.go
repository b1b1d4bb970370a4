package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access-token payload. Only the user ID is asserted;
// there are no roles in this application.
type JWTClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}
