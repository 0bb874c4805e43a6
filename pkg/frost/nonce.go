package frost

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20"

	"github.com/frostrelay/frostrelay/internal/hash"
	"github.com/frostrelay/frostrelay/internal/params"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/math/sample"
)

// NonceCommitment is the public half of a signing nonce pair: the two
// commitment points (D, E) = (d⋅G, e⋅G).
type NonceCommitment struct {
	D curve.Point
	E curve.Point
}

// MarshalBinary serializes the commitment as D ‖ E, 66 bytes.
func (n *NonceCommitment) MarshalBinary() ([]byte, error) {
	d, err := n.D.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("frost: nonce commitment D: %w", err)
	}
	e, err := n.E.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("frost: nonce commitment E: %w", err)
	}
	return append(d, e...), nil
}

// EmptyNonceCommitment returns a NonceCommitment ready for unmarshalling.
func EmptyNonceCommitment(group curve.Curve) *NonceCommitment {
	return &NonceCommitment{D: group.NewPoint(), E: group.NewPoint()}
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver must
// have been created with EmptyNonceCommitment.
func (n *NonceCommitment) UnmarshalBinary(data []byte) error {
	if n.D == nil || n.E == nil {
		return errors.New("frost: unmarshal into nonce commitment without group")
	}
	if len(data) != 2*params.BytesPoint {
		return fmt.Errorf("frost: invalid nonce commitment length: %d", len(data))
	}
	if err := n.D.UnmarshalBinary(data[:params.BytesPoint]); err != nil {
		return fmt.Errorf("frost: nonce commitment D: %w", err)
	}
	if err := n.E.UnmarshalBinary(data[params.BytesPoint:]); err != nil {
		return fmt.Errorf("frost: nonce commitment E: %w", err)
	}
	return nil
}

// Equal returns true if both commitments hold the same points.
func (n *NonceCommitment) Equal(other *NonceCommitment) bool {
	return n.D.Equal(other.D) && n.E.Equal(other.E)
}

// Nonce is the secret half of a single-use signing nonce pair.
//
// A nonce must never sign more than one message: reuse leaks the secret
// share. Consumed tracks whether the nonce has already produced a
// signature share, and is persisted together with the scalars.
type Nonce struct {
	group curve.Curve

	d curve.Scalar
	e curve.Scalar

	// Consumed is set once the nonce has been used to create a signature
	// share.
	Consumed bool
}

// keystream adapts a ChaCha20 cipher into an io.Reader producing its raw
// keystream.
type keystream struct {
	c *chacha20.Cipher
}

func (k keystream) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	k.c.XORKeyStream(p, p)
	return len(p), nil
}

// GenerateNonce derives a fresh nonce pair for one signing session.
//
// The scalars are drawn from a ChaCha20 keystream keyed by a transcript of
// the private share, the session identifier, and fresh entropy. The session
// identifier provides domain separation between sessions; the entropy makes
// every invocation distinct even within one.
func GenerateNonce(config *Config, sessionID string, rand io.Reader) (*Nonce, error) {
	entropy := make([]byte, params.SecBytes)
	if _, err := io.ReadFull(rand, entropy); err != nil {
		return nil, fmt.Errorf("frost: nonce entropy: %w", err)
	}

	seed := hash.New(hash.BytesWithDomain{TheDomain: "FROST/nonce-seed", Bytes: nil})
	if err := seed.WriteAny(config.PrivateShare, []byte(sessionID), entropy); err != nil {
		return nil, fmt.Errorf("frost: nonce seed: %w", err)
	}

	key := make([]byte, chacha20.KeySize)
	if _, err := io.ReadFull(seed.Digest(), key); err != nil {
		return nil, fmt.Errorf("frost: nonce seed: %w", err)
	}
	cipher, err := chacha20.NewUnauthenticatedCipher(key, make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, fmt.Errorf("frost: nonce keystream: %w", err)
	}
	rng := keystream{c: cipher}

	return &Nonce{
		group: config.group,
		d:     sample.ScalarUnit(rng, config.group),
		e:     sample.ScalarUnit(rng, config.group),
	}, nil
}

// Public returns the public half of the nonce pair.
func (n *Nonce) Public() *NonceCommitment {
	return &NonceCommitment{D: n.d.ActOnBase(), E: n.e.ActOnBase()}
}

type nonceMarshal struct {
	D        []byte
	E        []byte
	Consumed bool
}

// MarshalBinary implements encoding.BinaryMarshaler. The output contains
// the secret scalars and must be stored accordingly.
func (n *Nonce) MarshalBinary() ([]byte, error) {
	d, err := n.d.MarshalBinary()
	if err != nil {
		return nil, err
	}
	e, err := n.e.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&nonceMarshal{D: d, E: e, Consumed: n.Consumed})
}

// EmptyNonce returns a Nonce ready for unmarshalling.
func EmptyNonce(group curve.Curve) *Nonce {
	return &Nonce{group: group}
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver must
// have been created with EmptyNonce.
func (n *Nonce) UnmarshalBinary(data []byte) error {
	if n.group == nil {
		return errors.New("frost: unmarshal into nonce without group")
	}
	var nm nonceMarshal
	if err := cbor.Unmarshal(data, &nm); err != nil {
		return fmt.Errorf("frost: nonce: %w", err)
	}
	d := n.group.NewScalar()
	if err := d.UnmarshalBinary(nm.D); err != nil {
		return fmt.Errorf("frost: nonce d: %w", err)
	}
	e := n.group.NewScalar()
	if err := e.UnmarshalBinary(nm.E); err != nil {
		return fmt.Errorf("frost: nonce e: %w", err)
	}
	if d.IsZero() || e.IsZero() {
		return errors.New("frost: nonce scalars must be non-zero")
	}
	n.d = d
	n.e = e
	n.Consumed = nm.Consumed
	return nil
}
