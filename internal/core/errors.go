package core

import "errors"

var (
	// ErrFileTooLarge is returned when an uploaded dataset exceeds the
	// configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when an upload carries no file.
	ErrNoFile = errors.New("no file provided")
)
