package embedfile

import "errors"

// ErrMalformed marks a line that is not two numbers.
var ErrMalformed = errors.New("malformed embedding line")
