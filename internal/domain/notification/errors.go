package notification

import "errors"

var (
	ErrNotFound    = errors.New("notification not found")
	ErrUnknownType = errors.New("unknown notification type")
)
