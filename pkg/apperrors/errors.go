package apperrors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateID    = errors.New("duplicate id")
	ErrSchemaInUse    = errors.New("schema has dependent call records")
	ErrInvalidSchema  = errors.New("schema failed validation")
	ErrNoActiveSchema = errors.New("no active schema")
)
