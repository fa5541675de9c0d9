package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation")            // 400
	ErrInvalidCredentials  = errors.New("invalid credentials")   // 401
	ErrInvalidRefreshToken = errors.New("invalid refresh token") // 401
	ErrNotFound            = errors.New("not found")             // 404
	ErrConflict            = errors.New("conflict")              // 409
)

// ErrEmailTaken also matches ErrValidation.
var ErrEmailTaken = fmt.Errorf("%w: email already exists", ErrValidation)
