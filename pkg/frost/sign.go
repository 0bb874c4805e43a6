package frost

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/frostrelay/frostrelay/internal/hash"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/math/polynomial"
	"github.com/frostrelay/frostrelay/pkg/math/sample"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/taproot"
)

// ErrNonceConsumed is returned when a stored nonce is asked to sign a
// second message.
var ErrNonceConsumed = errors.New("nonce already used to sign")

// MessageHash maps the operator-supplied message onto the 32 bytes that
// BIP-340 signs.
func MessageHash(message []byte) []byte {
	return taproot.TaggedHash("frostrelay/message", message)
}

// SignSession is the shared context of one signing attempt: the binding
// factors, aggregated nonce, challenge, and Lagrange coefficients implied
// by a specific set of signers, a message, and their nonce commitments.
//
// Every signer, and whoever combines the shares, must reconstruct an
// identical session from the same inputs.
type SignSession struct {
	group curve.Curve

	// signers is the subset of key-generation participants taking part,
	// possibly strictly smaller than the full roster.
	signers     party.IDSlice
	messageHash []byte

	publicPoint        curve.Point
	publicKey          taproot.PublicKey
	verificationShares map[party.ID]curve.Point

	nonces map[party.ID]*NonceCommitment
	// rho[l] = ρₗ is the binding factor of party l.
	rho map[party.ID]curve.Scalar
	// lambda[l] = λₗ is the Lagrange coefficient of party l for this
	// signer subset.
	lambda map[party.ID]curve.Scalar

	// R = Σₗ (Dₗ + ρₗ⋅Eₗ), normalized to an even y coordinate.
	R *curve.Secp256k1Point
	// flipped records whether normalization negated R, in which case every
	// party's nonce contribution must be negated too.
	flipped bool

	// challenge = H(R.x ‖ Y.x ‖ m) per BIP-340.
	challenge curve.Scalar
}

// NewSignSession builds the signing context over (group key, message,
// nonce commitments).
//
// This corresponds to steps 4-5 of Figure 3 in the FROST paper, with the
// BIP-340 adjustments for x-only keys.
func NewSignSession(config *Config, message []byte, nonces map[party.ID]*NonceCommitment) (*SignSession, error) {
	group := config.group

	if len(nonces) < int(config.Threshold) {
		return nil, fmt.Errorf("frost: have %d signers, need at least %d", len(nonces), config.Threshold)
	}
	ids := make([]party.ID, 0, len(nonces))
	for id := range nonces {
		ids = append(ids, id)
	}
	signers := party.NewIDSlice(ids)
	if !config.PartyIDs.Contains(signers...) {
		return nil, errors.New("frost: signer set contains unknown parties")
	}
	for _, id := range signers {
		n := nonces[id]
		if n == nil || n.D.IsIdentity() || n.E.IsIdentity() {
			return nil, fmt.Errorf("frost: party %d: nonce commitment is the identity", id)
		}
	}

	messageHash := MessageHash(message)

	// ρₗ = H(m, B, l), with the prefix H(m, B) hashed once and cloned per
	// party.
	rhoPreHash := hash.New(hash.BytesWithDomain{TheDomain: "FROST/binding-factor", Bytes: nil})
	_ = rhoPreHash.WriteAny(messageHash)
	for _, l := range signers {
		_ = rhoPreHash.WriteAny(l, nonces[l].D, nonces[l].E)
	}
	rho := make(map[party.ID]curve.Scalar, len(signers))
	for _, l := range signers {
		rhoHash := rhoPreHash.Clone()
		_ = rhoHash.WriteAny(l)
		rho[l] = sample.Scalar(rhoHash.Digest(), group)
	}

	// R = Σₗ (Dₗ + ρₗ⋅Eₗ)
	R := group.NewPoint()
	for _, l := range signers {
		R = R.Add(nonces[l].D).Add(rho[l].Act(nonces[l].E))
	}
	if R.IsIdentity() {
		return nil, errors.New("frost: aggregated nonce is the identity")
	}

	// BIP-340 adjustment: R must have an even y coordinate. Negating R
	// means every party negates its dᵢ, eᵢ contribution when signing.
	RSecp := R.(*curve.Secp256k1Point)
	flipped := false
	if !RSecp.HasEvenY() {
		RSecp = R.Negate().(*curve.Secp256k1Point)
		flipped = true
	}

	publicKey := config.PublicKey()
	cHash := taproot.TaggedHash("BIP0340/challenge", RSecp.XBytes(), publicKey, messageHash)
	challenge := curve.FromHash(group, cHash)

	return &SignSession{
		group:              group,
		signers:            signers,
		messageHash:        messageHash,
		publicPoint:        config.PublicPoint,
		publicKey:          publicKey,
		verificationShares: config.VerificationShares,
		nonces:             nonces,
		rho:                rho,
		lambda:             polynomial.LagrangeFor(group, signers, signers...),
		R:                  RSecp,
		flipped:            flipped,
		challenge:          challenge,
	}, nil
}

// Signers returns the sorted subset of parties participating.
func (s *SignSession) Signers() party.IDSlice { return s.signers }

// AggregatedNonce returns R, the x-only normalized aggregated public nonce.
func (s *SignSession) AggregatedNonce() []byte {
	return s.R.XBytes()
}

// SignatureShare produces this party's share of the signature:
//
//	zᵢ = dᵢ + ρᵢ⋅eᵢ + λᵢ⋅sᵢ⋅c
//
// This is create_signature_share: step 5 of Figure 3 in the FROST paper.
// The nonce is checked against the commitment the session was built over,
// and against its consumed marker.
func (s *SignSession) SignatureShare(selfID party.ID, nonce *Nonce, privateShare curve.Scalar) (curve.Scalar, error) {
	if !s.signers.Contains(selfID) {
		return nil, fmt.Errorf("frost: party %d is not in the signer set", selfID)
	}
	if nonce.Consumed {
		return nil, fmt.Errorf("frost: party %d: %w", selfID, ErrNonceConsumed)
	}
	expected, ok := s.nonces[selfID]
	if !ok || !nonce.Public().Equal(expected) {
		return nil, fmt.Errorf("frost: party %d: stored nonce does not match the relayed commitment", selfID)
	}

	d := s.group.NewScalar().Set(nonce.d)
	e := s.group.NewScalar().Set(nonce.e)
	if s.flipped {
		d.Negate()
		e.Negate()
	}

	// z = λᵢ⋅sᵢ⋅c + dᵢ + ρᵢ⋅eᵢ
	z := s.group.NewScalar().Set(s.lambda[selfID]).Mul(privateShare).Mul(s.challenge)
	z.Add(d)
	z.Add(e.Mul(s.rho[selfID]))
	return z, nil
}

// VerifyShare checks one party's signature share against its verification
// share and nonce commitment:
//
//	zₗ⋅G == Rₗ + c⋅λₗ⋅Yₗ
func (s *SignSession) VerifyShare(id party.ID, share curve.Scalar) error {
	if !s.signers.Contains(id) {
		return fmt.Errorf("frost: party %d is not in the signer set", id)
	}
	if share == nil {
		return fmt.Errorf("frost: party %d: missing signature share", id)
	}

	// Rₗ = Dₗ + ρₗ⋅Eₗ, negated if R was normalized.
	RShare := s.nonces[id].D.Add(s.rho[id].Act(s.nonces[id].E))
	if s.flipped {
		RShare = RShare.Negate()
	}

	lhs := share.ActOnBase()
	factor := s.group.NewScalar().Set(s.challenge).Mul(s.lambda[id])
	rhs := RShare.Add(factor.Act(s.verificationShares[id]))
	if !lhs.Equal(rhs) {
		return fmt.Errorf("frost: party %d: %w", id, ErrInvalidShare)
	}
	return nil
}

// Combine verifies every signer's share, sums them into the final BIP-340
// signature, and checks the result against the group key.
//
// This is combine_and_verify: step 7c of Figure 3 in the FROST paper.
func (s *SignSession) Combine(shares map[party.ID]curve.Scalar) (taproot.Signature, error) {
	if len(shares) != len(s.signers) {
		return nil, fmt.Errorf("frost: have %d signature shares, need %d", len(shares), len(s.signers))
	}

	z := s.group.NewScalar()
	for _, id := range s.signers {
		share, ok := shares[id]
		if !ok {
			return nil, fmt.Errorf("frost: party %d: missing signature share", id)
		}
		if err := s.VerifyShare(id, share); err != nil {
			return nil, err
		}
		z.Add(share)
	}

	zBytes, err := z.MarshalBinary()
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 0, taproot.SignatureLength)
	sig = append(sig, s.R.XBytes()...)
	sig = append(sig, zBytes...)

	if !s.publicKey.Verify(sig, s.messageHash) {
		return nil, errors.New("frost: combined signature failed verification")
	}
	return sig, nil
}

// MatchesAggregatedNonce reports whether the given x-only nonce equals the
// session's aggregated nonce. Used to re-validate a persisted session
// context.
func (s *SignSession) MatchesAggregatedNonce(xonly []byte) bool {
	return bytes.Equal(xonly, s.R.XBytes())
}
