package repository

import "errors"

// Sentinels returned by the pg implementations. Lookups that miss return
// (nil, nil); writes that touch zero rows return ErrNotFound so callers never
// see a driver error.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)
