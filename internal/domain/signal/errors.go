package signal

import "errors"

// ErrUnknownMode is returned by ParseMode for unsupported visualization names.
var ErrUnknownMode = errors.New("unknown visualization mode")
