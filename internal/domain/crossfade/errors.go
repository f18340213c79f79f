package crossfade

import "errors"

// ErrMismatchedShape is reported through the mismatch hook when the current and
// incoming point sets differ in length. Sampling itself never fails.
var ErrMismatchedShape = errors.New("crossfade point counts differ")
