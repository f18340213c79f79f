package export

import "errors"

// ErrIOFailure wraps any failure to create, write or close an export stream.
var ErrIOFailure = errors.New("export stream failed")
