package models

import "errors"

var (
	// ErrEarlierThanLMP is returned when a query date precedes the
	// timeline's anchor date.
	ErrEarlierThanLMP = errors.New("date is earlier than the last menstrual period")

	// ErrNotBorn is returned by life-stage queries asked before a birth
	// has been recorded or reached. Callers should render a placeholder
	// rather than treat this as fatal.
	ErrNotBorn = errors.New("child is not born as of the given date")
)
