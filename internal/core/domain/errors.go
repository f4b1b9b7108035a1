package domain

import "errors"

// Credential and identity-resolution errors. Expired and invalid are distinct
// kinds on purpose: an expired credential can be silently refreshed by the
// client, an invalid one forces a hard logout.
var (
	ErrMissingCredential  = errors.New("missing credential")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrExpiredCredential  = errors.New("credential expired")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

// Authorization errors.
var (
	ErrForbidden       = errors.New("access forbidden")
	ErrProductNotFound = errors.New("product not found")
	ErrBannerNotFound  = errors.New("banner not found")
)

// Account errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidLogin    = errors.New("invalid email or password")
	ErrInvalidRole     = errors.New("invalid role")
	ErrTooManyAttempts = errors.New("too many login attempts")
)
