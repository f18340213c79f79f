package bvh

import "errors"

// ErrSyntax marks malformed BVH input. Errors carry the offending line number.
var ErrSyntax = errors.New("bvh syntax error")
