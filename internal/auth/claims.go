package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for the dev upstream.
// The same token is presented on regular endpoints and exchanged at /auth/refresh.
type Claims struct {
	jwt.RegisteredClaims

	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
