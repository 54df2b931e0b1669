package controlplane

import "errors"

var (
	ErrAlreadyExists     = errors.New("tenant identifier is already taken")
	ErrInvalidTransition = errors.New("tenant status transition not allowed")
	ErrInvalidStatus     = errors.New("unknown tenant status")
	ErrInvalidName       = errors.New("company name must be 1 to 255 characters")
	ErrUnknownDriver     = errors.New("unknown control plane driver")
)
