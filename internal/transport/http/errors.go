package http

import "errors"

var (
	errInvalidPayload  = errors.New("invalid command payload")
	errUnsupportedType = errors.New("unsupported message type")
)
