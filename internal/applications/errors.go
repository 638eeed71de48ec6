package applications

import "errors"

var (
	ErrNotFound          = errors.New("application not found")
	ErrInvalidInput      = errors.New("invalid application input")
	ErrDuplicate         = errors.New("candidate already applied to this job")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("not allowed to access application")
)
