package services

import "errors"

var (
	// ErrEmptyQuery is returned when a query is blank after trimming
	ErrEmptyQuery = errors.New("query is empty")
	// ErrBookNotFound is returned for a corpus row that does not exist
	ErrBookNotFound = errors.New("book not found")
)
