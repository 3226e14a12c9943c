package pages

import "errors"

// ErrNoContent indicates the page rendered too little visible text to be
// worth checking. Fatal for the run, no retry.
var ErrNoContent = errors.New("not enough text content found on the page")
