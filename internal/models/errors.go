package models

import "errors"

var (
	// ErrNotArchived is returned when a description carries no archive descriptor.
	ErrNotArchived = errors.New("description carries no archive descriptor")

	// ErrInvalidRecord is returned by [ArchiveRecord.Validate].
	ErrInvalidRecord = errors.New("invalid archive record")
)
