// internal/source/source.go
package source

import "errors"

// ErrUnavailable marks an upstream fetch failure (network, auth, format).
// The engine is stateless per call, so callers may safely retry.
var ErrUnavailable = errors.New("upstream source unavailable")
