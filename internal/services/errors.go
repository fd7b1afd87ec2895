package services

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

type ErrorKind string

const (
	KindInvalidGenre    ErrorKind = "InvalidGenre"
	KindInvalidSort     ErrorKind = "InvalidSort"
	KindMissingQuery    ErrorKind = "MissingQuery"
	KindNotFound        ErrorKind = "NotFound"
	KindMissingGenres   ErrorKind = "MissingGenres"
	KindValidationError ErrorKind = "ValidationError"
)

// SortOptions lists the accepted values of the movie sort parameter.
var SortOptions = []string{"budget", "popularity", "-budget", "-popularity"}

// CatalogError is a caller input error. Message is safe to return to clients.
type CatalogError struct {
	Kind    ErrorKind
	Message string
	Options []string
}

func (e *CatalogError) Error() string {
	return e.Message
}

// Is matches any CatalogError of the same kind, so errors.Is works against
// the sentinels below regardless of payload.
func (e *CatalogError) Is(target error) bool {
	t, ok := target.(*CatalogError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidGenre = &CatalogError{Kind: KindInvalidGenre, Message: "Genre does not exist."}
	ErrInvalidSort  = &CatalogError{
		Kind:    KindInvalidSort,
		Message: "Invalid sort parameter. Valid options are: " + strings.Join(SortOptions, ", ") + ".",
		Options: slices.Clone(SortOptions),
	}
	ErrMissingQuery  = &CatalogError{Kind: KindMissingQuery, Message: "Missing query parameter."}
	ErrMovieNotFound = &CatalogError{Kind: KindNotFound, Message: "Movie does not exist."}
	ErrMissingGenres = &CatalogError{Kind: KindMissingGenres, Message: "Missing genres parameter."}
)

// ValidationError carries per-field messages for a rejected movie payload.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Kind() ErrorKind {
	return KindValidationError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], " ")))
	}
	return "validation error: " + strings.Join(parts, "; ")
}
