package analyses

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrNoResult = errors.New("analysis has no result")
	ErrNoSource = errors.New("analysis has no stored source")
)
