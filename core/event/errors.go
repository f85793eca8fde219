package event

import "errors"

var (
	// ErrAllocationFailure is returned when the base allocator or an arena
	// cannot satisfy a request.
	ErrAllocationFailure = errors.New("event: allocation failure")

	// ErrAlreadySent is returned by any Send* call made after the response
	// has already been marked sent. It is a programming error.
	ErrAlreadySent = errors.New("event: response already sent")

	// ErrInvalidRequest is returned by the wire parser for a malformed or
	// unsupported request line.
	ErrInvalidRequest = errors.New("event: invalid request")
)
