package calendar

import "errors"

var (
	ErrNotFound = errors.New("calendar entry not found")
	ErrNotOwner = errors.New("calendar entry belongs to another user")
	ErrInvalid  = errors.New("calendar entry is invalid")
	ErrStore    = errors.New("calendar entry could not be stored")
)

// Rejection is a controller failure carrying a message for the caller.
// Message is empty when the failure should be reported without text.
type Rejection struct {
	err     error
	Message string
}

func reject(err error, message string) *Rejection {
	return &Rejection{err: err, Message: message}
}

func (r *Rejection) Error() string {
	if r.Message == "" {
		return r.err.Error()
	}
	return r.err.Error() + ": " + r.Message
}

func (r *Rejection) Unwrap() error {
	return r.err
}

// RejectionMessage returns the caller-facing message carried by err, if any.
func RejectionMessage(err error) string {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Message
	}
	return ""
}
