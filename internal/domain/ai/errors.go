package ai

import "errors"

// ErrBadModelResponse indicates the model returned a response that is
// missing or fails schema validation. Fatal for the run, never retried.
var ErrBadModelResponse = errors.New("model returned an unusable response")
