package mobilelink

import "errors"

// Domain errors for the mobilelink package.
var (
	// ErrFetchFailed is returned when the listing request could not be completed.
	ErrFetchFailed = errors.New("mobilelink: fetch failed")

	// ErrAuthFailed is returned when the token grant fails or the API rejects the token.
	ErrAuthFailed = errors.New("mobilelink: authentication failed")

	// ErrUnexpectedStatus is returned for any other non-2xx response.
	ErrUnexpectedStatus = errors.New("mobilelink: unexpected status")

	// ErrDecodeFailed is returned when the response body is not a JSON array.
	ErrDecodeFailed = errors.New("mobilelink: decode failed")

	// ErrInvalidConfig is returned by NewClient for unusable configuration.
	ErrInvalidConfig = errors.New("mobilelink: invalid config")
)
