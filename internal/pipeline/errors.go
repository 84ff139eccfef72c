package pipeline

import "errors"

// ErrBusy indicates a trigger arriving while a release is already running.
var ErrBusy = errors.New("a release is already running")
