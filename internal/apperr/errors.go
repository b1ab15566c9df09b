package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingIdentifier = errors.New("no identifier assigned")
)
