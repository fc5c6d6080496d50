package domain

import "errors"

// Sentinel errors returned by the directory client and the user store so the
// app layer can distinguish "absent" from infrastructure failures.
var (
	ErrPendingRegistrationNotFound = errors.New("pending registration not found")
	ErrIdentityNotFound            = errors.New("identity not found")
	ErrUserNotFound                = errors.New("user not found")
	ErrEmailAlreadyExists          = errors.New("user with this email already exists")
)
