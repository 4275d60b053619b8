package models

import "errors"

// Storage-level sentinels. Repositories wrap them; callers match with errors.Is.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState means a conditional update matched no row.
	ErrStaleState = errors.New("state changed concurrently")
)
