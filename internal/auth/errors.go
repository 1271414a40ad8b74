package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrOperatorNotFound   = errors.New("auth: operator not found")
	ErrOperatorInactive   = errors.New("auth: operator account is inactive")
	ErrUsernameExists     = errors.New("auth: username already exists")
	ErrInvalidUsername    = errors.New("auth: invalid username")
	ErrInvalidRole        = errors.New("auth: invalid role")
	ErrTokenExpired       = errors.New("auth: token has expired")
	ErrTokenRevoked       = errors.New("auth: token has been revoked")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrTokenReuse         = errors.New("auth: refresh token reuse detected")
	ErrForbidden          = errors.New("auth: insufficient permissions")
)
