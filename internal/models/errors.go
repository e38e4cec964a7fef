package models

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrViewClosed = errors.New("chat view closed")
	ErrEmptySend  = errors.New("nothing to send")
)
