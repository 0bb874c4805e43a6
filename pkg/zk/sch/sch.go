package zksch

import (
	"errors"
	"fmt"
	"io"

	"github.com/frostrelay/frostrelay/internal/hash"
	"github.com/frostrelay/frostrelay/internal/params"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/math/sample"
)

// Proof is a Schnorr proof of knowledge of the discrete logarithm of a
// public point, used as a proof of possession during key generation.
//
// The proof claims z⋅G = R + e⋅X, for the challenge e derived from the
// transcript, the public point X, and the commitment R.
type Proof struct {
	// R = k⋅G for the prover's ephemeral k.
	R curve.Point
	// Z = k + e⋅x.
	Z curve.Scalar
}

func challenge(h *hash.Hash, R, X curve.Point) curve.Scalar {
	_ = h.WriteAny(R, X)
	return sample.Scalar(h.Digest(), X.Curve())
}

// NewProof proves knowledge of x, the discrete logarithm of X = x⋅G.
//
// The hash transcript must already bind the protocol context and the
// prover's identity, so that proofs cannot be replayed across parties or
// sessions.
func NewProof(h *hash.Hash, X curve.Point, x curve.Scalar, rand io.Reader) (*Proof, error) {
	group := X.Curve()
	k := sample.ScalarUnit(rand, group)
	R := k.ActOnBase()

	e := challenge(h, R, X)
	// z = k + e⋅x
	z := e.Mul(x).Add(k)
	return &Proof{R: R, Z: z}, nil
}

// Verify checks that the proof is valid for the public point X, under the
// same transcript used by the prover.
func (p *Proof) Verify(h *hash.Hash, X curve.Point) bool {
	if p == nil || p.R == nil || p.Z == nil {
		return false
	}
	if p.R.IsIdentity() || X.IsIdentity() || p.Z.IsZero() {
		return false
	}

	e := challenge(h, p.R, X)

	lhs := p.Z.ActOnBase()
	rhs := e.Act(X).Add(p.R)
	return lhs.Equal(rhs)
}

// EmptyProof returns a Proof ready for unmarshalling.
func EmptyProof(group curve.Curve) *Proof {
	return &Proof{R: group.NewPoint(), Z: group.NewScalar()}
}

// MarshalBinary serializes the proof as R ‖ z.
func (p *Proof) MarshalBinary() ([]byte, error) {
	rBytes, err := p.R.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("zksch: marshal R: %w", err)
	}
	zBytes, err := p.Z.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("zksch: marshal z: %w", err)
	}
	return append(rBytes, zBytes...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver must
// have been created with EmptyProof.
func (p *Proof) UnmarshalBinary(data []byte) error {
	if p.R == nil || p.Z == nil {
		return errors.New("zksch: unmarshal into proof without group")
	}
	if len(data) != params.BytesPoint+params.BytesScalar {
		return fmt.Errorf("zksch: invalid proof length: %d", len(data))
	}
	if err := p.R.UnmarshalBinary(data[:params.BytesPoint]); err != nil {
		return fmt.Errorf("zksch: unmarshal R: %w", err)
	}
	if err := p.Z.UnmarshalBinary(data[params.BytesPoint:]); err != nil {
		return fmt.Errorf("zksch: unmarshal z: %w", err)
	}
	return nil
}
