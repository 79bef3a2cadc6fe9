package repository

import "errors"

// ErrAttendeeNotFound is returned when a lookup by id or serial yields no rows.
var ErrAttendeeNotFound = errors.New("attendee not found")
