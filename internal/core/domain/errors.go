package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is the root of every failure that maps to 401. Callers
// match on it with errors.Is; the wrapped variants only refine the log line.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrMissingToken       = fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	ErrInvalidAuthScheme  = fmt.Errorf("%w: invalid authorization header", ErrUnauthenticated)
	ErrTokenMalformed     = fmt.Errorf("%w: malformed token", ErrUnauthenticated)
	ErrTokenSignature     = fmt.Errorf("%w: invalid token signature", ErrUnauthenticated)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrTokenClass         = fmt.Errorf("%w: wrong token type", ErrUnauthenticated)
	ErrTokenReused        = fmt.Errorf("%w: refresh token already used", ErrUnauthenticated)
)

var (
	ErrForbidden              = errors.New("access forbidden")
	ErrInvalidCurrentPassword = errors.New("invalid current password")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailTaken             = errors.New("this email is already taken")
	ErrValidation             = errors.New("validation failed")
)
