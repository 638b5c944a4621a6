package domain

import "errors"

var (
	// ErrNoDataset indicates that no dataset satisfied a search or subset query.
	ErrNoDataset = errors.New("no dataset found")
	// ErrParse indicates a malformed protocol document.
	ErrParse = errors.New("parse failure")
	// ErrUpstream indicates a failed request to the data portal.
	ErrUpstream = errors.New("upstream request failed")
)
