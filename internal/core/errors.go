package core

import "errors"

// Error codes carried on ERROR frames.
const (
	ErrCodeDuplicateName = "name_taken"
	ErrCodeAuth          = "auth_failed"
	ErrCodeNotFound      = "not_found"
	ErrCodeNotOperator   = "not_operator"
	ErrCodeNotMember     = "not_member"
	ErrCodeDenied        = "denied"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeRestricted    = "restricted"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeNotRegistered = "not_registered"
)

var (
	ErrDuplicateName  = errors.New("name already registered")
	ErrAuthentication = errors.New("authentication failed")
	ErrChannelExists  = errors.New("channel already exists")
	ErrNotFound       = errors.New("not found")
	ErrNotOperator    = errors.New("not an operator")
	ErrNotMember      = errors.New("not a member")
)

// Error is a recoverable domain error. The dispatcher converts every Error
// into a single ERROR frame to the requesting connection; nothing else
// observes it.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
