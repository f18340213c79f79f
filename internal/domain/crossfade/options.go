package crossfade

import "time"

// Option configures a Buffer.
type Option func(*Buffer)

// WithDuration sets the blend length. Non-positive values are ignored.
func WithDuration(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.duration = d
		}
	}
}

// WithMismatchHook is called, outside the buffer lock, each time Sample meets
// point sets of different length. err wraps ErrMismatchedShape.
func WithMismatchHook(fn func(err error)) Option {
	return func(b *Buffer) {
		b.onMismatch = fn
	}
}

// WithSwapHook is called, outside the buffer lock, by the one Sample call
// that completes a blend and makes the incoming set current.
func WithSwapHook(fn func()) Option {
	return func(b *Buffer) {
		b.onSwap = fn
	}
}
