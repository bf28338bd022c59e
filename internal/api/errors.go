package api

import (
	"errors"
	"net/http"
)

// Kind classifies how an upstream call failed.
type Kind int

const (
	// KindTransport is a network failure: no response was received.
	KindTransport Kind = iota + 1
	// KindHTTP is a non-2xx response.
	KindHTTP
	// KindRejected is a 2xx response without success:true.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTP:
		return "http"
	case KindRejected:
		return "rejected"
	}
	return "unknown"
}

// Error is the single shape every upstream failure is normalized to.
type Error struct {
	Kind    Kind
	Status  int
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Message is the text to surface to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

// StatusOf returns the upstream HTTP status behind err, or 0.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsUnauthorized reports whether upstream refused the session token.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsKind reports whether err is an upstream error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
