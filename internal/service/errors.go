package service

import "errors"

var (
	ErrNotFound     = errors.New("post not found")
	ErrUnauthorized = errors.New("invalid secret key")
	ErrSecretUnset  = errors.New("server secret key is not configured")
	ErrValidation   = errors.New("validation failed")
)
