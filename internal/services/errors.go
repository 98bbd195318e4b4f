package services

import "errors"

// ErrNotParticipant is returned when the caller is not in a conversation's
// participant set. REST maps it to 404 (resources are scoped to the caller);
// the relay maps it to a caller-only error event.
var ErrNotParticipant = errors.New("not a participant of this conversation")

// RequestError carries a client-facing message for a rejected request.
// Handlers map it to HTTP 400.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string {
	return e.Msg
}
