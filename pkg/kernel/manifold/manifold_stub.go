//go:build !manifold

// Package manifold provides a CGo-based solid kernel binding to the
// Manifold library. When the "manifold" build tag is not set, this stub
// is compiled instead and New returns ErrUnavailable.
//
// Build with: go build -tags=manifold
package manifold

import (
	"github.com/chazu/liftplan/pkg/kernel"
)

// New reports that Manifold support was not compiled in.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
