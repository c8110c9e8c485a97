package engine

import "errors"

// ErrLocked indicates another process has the data directory open.
var ErrLocked = errors.New("engine: data directory is locked by another process")
