package client

import "errors"

var (
	// ErrInvalidConfig wraps every configuration problem found by LoadConfig
	// and Config.Validate.
	ErrInvalidConfig = errors.New("client: invalid config")

	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("client: closed")
)
