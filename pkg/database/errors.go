package database

import "errors"

// ErrDisabled is returned by New when the configuration has the journal turned off.
var ErrDisabled = errors.New("database disabled")
