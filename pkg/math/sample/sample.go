package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"

	"github.com/frostrelay/frostrelay/pkg/math/curve"
)

const maxIterations = 255

// ErrMaxIterations is returned when the source of randomness fails to
// produce usable bytes after many attempts.
var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// Scalar returns a new Scalar, sampled from the uniform distribution over
// the order of the group.
//
// The reader can be a source of cryptographic randomness, or the extendable
// digest stream of a hash transcript when a deterministic challenge is wanted.
func Scalar(rand io.Reader, group curve.Curve) curve.Scalar {
	buf := make([]byte, group.SafeScalarBytes())
	mustReadBits(rand, buf)
	n := new(saferith.Nat).SetBytes(buf)
	return group.NewScalar().SetNat(n)
}

// ScalarUnit returns a new Scalar, sampled as above but guaranteed non-zero.
func ScalarUnit(rand io.Reader, group curve.Curve) curve.Scalar {
	for i := 0; i < maxIterations; i++ {
		s := Scalar(rand, group)
		if !s.IsZero() {
			return s
		}
	}
	panic(ErrMaxIterations)
}
