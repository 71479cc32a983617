package domain

import "errors"

// Error classes. Concrete errors wrap one of these so callers can use errors.Is.
var (
	ErrProbe        = errors.New("probe failed")
	ErrPersistence  = errors.New("state persistence failed")
	ErrNotification = errors.New("notification failed")
	ErrConfig       = errors.New("invalid config")
)
