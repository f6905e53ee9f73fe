package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("missing or invalid fields")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Queue errors
var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrDepartmentNotFound = errors.New("department queue not found")
	ErrEmptyQueue         = errors.New("no patients waiting in queue")
	ErrConflict           = errors.New("patient is not in a valid status for this action")
	ErrAlreadyDispatched  = errors.New("department already has a patient being served")
	ErrQueueNotActive     = errors.New("queue is paused or closed")
	ErrInvalidQueueState  = errors.New("invalid queue state")
	ErrInvalidUrgency     = errors.New("invalid urgency class")
)

// User errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserInactive     = errors.New("user account is disabled")
	ErrRefreshTokenUsed = errors.New("refresh token revoked or expired")
)
