package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrEncode = errors.New("encode detection history")
	ErrWrite  = errors.New("write detection history")
)
