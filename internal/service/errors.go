package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrUnauthorized       = errors.New("unauthorized")        // 401
	ErrSearchDisabled     = errors.New("search is not configured")
)

// FieldError is a validation failure keyed by request field.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *FieldError) Unwrap() error { return ErrValidation }

func Invalid(field, msg string) error {
	return &FieldError{Fields: map[string]string{field: msg}}
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &FieldError{Fields: f}
}
