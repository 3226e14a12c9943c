package reports

import "errors"

// ErrNotFound indicates the requested report or screenshot does not exist.
var ErrNotFound = errors.New("report not found")
