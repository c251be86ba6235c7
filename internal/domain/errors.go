package domain

import "errors"

// Walker errors
var (
	// ErrRead indicates the local tree root is missing or unreadable.
	// This is fatal for the whole run; no remote calls are attempted.
	ErrRead = errors.New("cannot read source tree")
)

// Remote service errors
var (
	// ErrNotFound indicates the requested page does not exist
	ErrNotFound = errors.New("page not found")

	// ErrLookup indicates a remote lookup failed at the transport level
	ErrLookup = errors.New("remote lookup failed")

	// ErrUnauthorized indicates rejected credentials or missing permissions
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the service throttled the request
	ErrRateLimited = errors.New("rate limited")

	// ErrSpaceNotFound indicates the configured space key does not resolve
	ErrSpaceNotFound = errors.New("space not found")
)

// Conversion errors
var (
	// ErrConversion indicates a document could not be converted to markup.
	// Recorded per node; the run continues.
	ErrConversion = errors.New("document conversion failed")
)

// Config errors
var (
	// ErrConfigNotFound indicates no config file was found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates the config file is malformed or incomplete
	ErrConfigInvalid = errors.New("invalid config")
)
