package database

import "errors"

var (
	// ErrDuplicateURL indicates a finding for the URL is already stored.
	ErrDuplicateURL = errors.New("finding for URL already exists")

	// ErrEmptyFinding indicates an attempt to store a finding without any data.
	ErrEmptyFinding = errors.New("finding has no extracted data")

	// ErrMissingURL indicates an attempt to store a finding without a URL.
	ErrMissingURL = errors.New("finding has no URL")
)
