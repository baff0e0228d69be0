package domain

import "errors"

// ErrNotFound signals a by-name lookup miss. Distinct from upstream
// transport failure, which degrades to an empty collection instead.
var ErrNotFound = errors.New("not found")
