package model

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrContentLocked       = errors.New("post content can no longer be edited")
	ErrStaleStatus         = errors.New("post status changed concurrently")
	ErrInvalidState        = errors.New("invalid or expired oauth state")
	ErrRefreshFailed       = errors.New("token refresh failed")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrNoAdapter           = errors.New("no publisher configured")
)

// ValidationError reports a rejected field on create/update requests
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
