package service

import "errors"

var (
	// ErrTransport means the remote service was unreachable or answered with a non-success status
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse means the response body did not have the expected shape
	ErrMalformedResponse = errors.New("malformed response")
	// ErrSubmitDisabled is returned while a valuation request is already in flight
	ErrSubmitDisabled = errors.New("valuation request already in flight")
	ErrInvalidQuery   = errors.New("invalid property query")
	// ErrUnknownExchange is returned for an exchange that is not awaiting a reply in this session
	ErrUnknownExchange = errors.New("unknown exchange")
	ErrSessionNotFound = errors.New("session not found")
)
