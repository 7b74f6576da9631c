package ittour

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable covers transport failures and timeouts.
	ErrServiceUnavailable = errors.New("tour search service unavailable")
	// ErrMalformedResponse is reported for payloads that are not a JSON object.
	ErrMalformedResponse = errors.New("malformed tour search response")
)

// CodeUnknown is the code used for responses that carry no usable code.
const CodeUnknown = 110

// UpstreamError is a structured error returned by the search API.
type UpstreamError struct {
	Code        int
	Message     string
	Description string
	HTTPStatus  int
	malformed   bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tour search error %d: %s (%s)", e.Code, e.Message, e.Description)
}

// Is lets errors.Is(err, ErrMalformedResponse) match normalized envelopes that
// stand in for a malformed payload.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrMalformedResponse && e.malformed
}

// QueryError reports a search query that failed validation. Message is
// suitable for showing to the user.
type QueryError struct {
	Field   string
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid search query field %s: %s", e.Field, e.Message)
}
