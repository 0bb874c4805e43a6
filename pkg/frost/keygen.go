package frost

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/frostrelay/frostrelay/internal/hash"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/math/polynomial"
	"github.com/frostrelay/frostrelay/pkg/math/sample"
	"github.com/frostrelay/frostrelay/pkg/party"
	zksch "github.com/frostrelay/frostrelay/pkg/zk/sch"
)

// ErrInvalidPoP is returned when a party's proof of possession does not
// verify against its commitment.
var ErrInvalidPoP = errors.New("invalid proof of possession")

// ErrInvalidShare is returned when a secret share or signature share does
// not match the sender's public commitment.
var ErrInvalidShare = errors.New("invalid share")

// popTranscript binds a proof of possession to the protocol and to the
// prover's index, so that commitments cannot be replayed by other parties.
func popTranscript(id party.ID) *hash.Hash {
	return hash.New(hash.BytesWithDomain{TheDomain: "FROST/keygen-pop", Bytes: nil}, id)
}

// Commitment is the public part of a party's key-generation contribution:
// the committed polynomial and a proof of possession of its constant term.
//
// This corresponds to (Φᵢ, σᵢ) in Figure 1 of the FROST paper,
// https://eprint.iacr.org/2020/852.pdf.
type Commitment struct {
	// Phi is the polynomial commitment ⟨ϕᵢ₀, …, ϕᵢₜ⟩.
	Phi *polynomial.Exponent
	// Pop proves knowledge of the secret constant aᵢ₀ behind ϕᵢ₀.
	Pop *zksch.Proof
}

type commitmentMarshal struct {
	Phi []byte
	Pop []byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *Commitment) MarshalBinary() ([]byte, error) {
	phi, err := c.Phi.MarshalBinary()
	if err != nil {
		return nil, err
	}
	pop, err := c.Pop.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&commitmentMarshal{Phi: phi, Pop: pop})
}

// EmptyCommitment returns a Commitment ready for unmarshalling.
func EmptyCommitment(group curve.Curve) *Commitment {
	return &Commitment{
		Phi: polynomial.EmptyExponent(group),
		Pop: zksch.EmptyProof(group),
	}
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver must
// have been created with EmptyCommitment.
func (c *Commitment) UnmarshalBinary(data []byte) error {
	if c.Phi == nil || c.Pop == nil {
		return errors.New("frost: unmarshal into commitment without group")
	}
	var cm commitmentMarshal
	if err := cbor.Unmarshal(data, &cm); err != nil {
		return fmt.Errorf("frost: commitment: %w", err)
	}
	if err := c.Phi.UnmarshalBinary(cm.Phi); err != nil {
		return fmt.Errorf("frost: commitment: %w", err)
	}
	if err := c.Pop.UnmarshalBinary(cm.Pop); err != nil {
		return fmt.Errorf("frost: commitment: %w", err)
	}
	return nil
}

// Contribution is one party's private key-generation state: the secret
// polynomial, the public commitment to it, and the secret share destined
// for every party, itself included.
type Contribution struct {
	group  curve.Curve
	selfID party.ID

	secret *polynomial.Polynomial

	// Commitment is the public part, to be relayed to all parties.
	Commitment *Commitment
	// Shares maps each recipient to its secret share fᵢ(l). Every entry,
	// except the recipient's own, must reach only that recipient.
	Shares map[party.ID]curve.Scalar
}

// NewContribution samples a random polynomial of degree threshold-1,
// commits to it, proves possession of its constant term, and evaluates it
// at every party's index.
//
// This is generate_keygen_contribution: steps 1-4 of Round 1, Figure 1 in
// the FROST paper.
func NewContribution(group curve.Curve, selfID party.ID, threshold party.Size, parties party.IDSlice, rand io.Reader) (*Contribution, error) {
	if !parties.Valid() {
		return nil, errors.New("frost: party set is not valid")
	}
	if threshold < 1 || int(threshold) > len(parties) {
		return nil, fmt.Errorf("frost: invalid threshold %d for %d parties", threshold, len(parties))
	}
	if !parties.Contains(selfID) {
		return nil, fmt.Errorf("frost: own index %d not in party set", selfID)
	}

	secretConstant := sample.ScalarUnit(rand, group)
	f := polynomial.NewPolynomial(group, int(threshold)-1, secretConstant, rand)
	phi := polynomial.NewPolynomialExponent(f)

	pop, err := zksch.NewProof(popTranscript(selfID), phi.Constant(), f.Constant(), rand)
	if err != nil {
		return nil, fmt.Errorf("frost: proof of possession: %w", err)
	}

	shares := make(map[party.ID]curve.Scalar, len(parties))
	for _, id := range parties {
		shares[id] = f.Evaluate(id.Scalar(group))
	}

	return &Contribution{
		group:      group,
		selfID:     selfID,
		secret:     f,
		Commitment: &Commitment{Phi: phi, Pop: pop},
		Shares:     shares,
	}, nil
}

type contributionMarshal struct {
	SelfID       party.ID
	Coefficients [][]byte
}

// MarshalBinary serializes the private contribution for persistence
// between rounds. The output contains the secret polynomial and must be
// stored accordingly.
func (c *Contribution) MarshalBinary() ([]byte, error) {
	coefficients := c.secret.Coefficients()
	cm := contributionMarshal{
		SelfID:       c.selfID,
		Coefficients: make([][]byte, len(coefficients)),
	}
	for i, coefficient := range coefficients {
		data, err := coefficient.MarshalBinary()
		if err != nil {
			return nil, err
		}
		cm.Coefficients[i] = data
	}
	return cbor.Marshal(&cm)
}

// EmptyContribution returns a Contribution ready for unmarshalling.
func EmptyContribution(group curve.Curve) *Contribution {
	return &Contribution{group: group}
}

// UnmarshalBinary restores a persisted contribution. Only the secret
// polynomial and identity survive the round trip; the commitment and the
// share map are rederived.
func (c *Contribution) UnmarshalBinary(data []byte) error {
	if c.group == nil {
		return errors.New("frost: unmarshal into contribution without group")
	}
	var cm contributionMarshal
	if err := cbor.Unmarshal(data, &cm); err != nil {
		return fmt.Errorf("frost: contribution: %w", err)
	}
	if len(cm.Coefficients) == 0 {
		return errors.New("frost: contribution: no coefficients")
	}
	coefficients := make([]curve.Scalar, len(cm.Coefficients))
	for i, data := range cm.Coefficients {
		s := c.group.NewScalar()
		if err := s.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("frost: contribution: coefficient %d: %w", i, err)
		}
		coefficients[i] = s
	}
	c.selfID = cm.SelfID
	c.secret = polynomial.NewPolynomialFromCoefficients(c.group, coefficients)
	c.Commitment = &Commitment{Phi: polynomial.NewPolynomialExponent(c.secret)}
	return nil
}

// SelfID returns the index of the party owning this contribution.
func (c *Contribution) SelfID() party.ID { return c.selfID }

// CommitmentSet is the verified aggregate of every party's commitment.
//
// It is the context needed both to emit secret shares and to verify
// inbound ones, and can be rebuilt at any time from the relayed
// commitments.
type CommitmentSet struct {
	group     curve.Curve
	threshold party.Size
	parties   party.IDSlice

	commitments map[party.ID]*Commitment
	// summed is Σₗ Φₗ, the exponent polynomial of the joint secret.
	summed *polynomial.Exponent
}

// VerifyCommitments checks every party's proof of possession, in
// party-index order, and aggregates the commitments.
//
// This is aggregate_commitments: step 5 of Round 1, Figure 1 in the FROST
// paper.
func VerifyCommitments(group curve.Curve, threshold party.Size, parties party.IDSlice, commitments map[party.ID]*Commitment) (*CommitmentSet, error) {
	if !parties.Valid() {
		return nil, errors.New("frost: party set is not valid")
	}
	if threshold < 1 || int(threshold) > len(parties) {
		return nil, fmt.Errorf("frost: invalid threshold %d for %d parties", threshold, len(parties))
	}
	if len(commitments) != len(parties) {
		return nil, fmt.Errorf("frost: have %d commitments, need %d", len(commitments), len(parties))
	}

	summands := make([]*polynomial.Exponent, 0, len(parties))
	for _, id := range parties {
		c, ok := commitments[id]
		if !ok || c == nil || c.Phi == nil {
			return nil, fmt.Errorf("frost: missing commitment from party %d", id)
		}
		if c.Phi.Degree() != int(threshold)-1 {
			return nil, fmt.Errorf("frost: party %d: commitment degree %d does not match threshold %d", id, c.Phi.Degree(), threshold)
		}
		if !c.Pop.Verify(popTranscript(id), c.Phi.Constant()) {
			return nil, fmt.Errorf("frost: party %d: %w", id, ErrInvalidPoP)
		}
		summands = append(summands, c.Phi)
	}

	summed, err := polynomial.Sum(summands)
	if err != nil {
		return nil, fmt.Errorf("frost: aggregate commitments: %w", err)
	}

	return &CommitmentSet{
		group:       group,
		threshold:   threshold,
		parties:     parties,
		commitments: commitments,
		summed:      summed,
	}, nil
}

// Parties returns the party set the commitments were aggregated over.
func (cs *CommitmentSet) Parties() party.IDSlice { return cs.parties }

// DeriveShare verifies one inbound secret share per party against the
// sender's commitment, sums them into this party's final share, and
// normalizes the result for x-only (BIP-340) use.
//
// This is derive_final_share: steps 2-4 of Round 2, Figure 1 in the FROST
// paper.
func (cs *CommitmentSet) DeriveShare(selfID party.ID, inbound map[party.ID]curve.Scalar) (*Config, error) {
	if !cs.parties.Contains(selfID) {
		return nil, fmt.Errorf("frost: own index %d not in party set", selfID)
	}
	if len(inbound) != len(cs.parties) {
		return nil, fmt.Errorf("frost: have %d shares addressed to party %d, need %d", len(inbound), selfID, len(cs.parties))
	}

	selfScalar := selfID.Scalar(cs.group)
	privateShare := cs.group.NewScalar()
	for _, id := range cs.parties {
		share, ok := inbound[id]
		if !ok || share == nil {
			return nil, fmt.Errorf("frost: missing share from party %d", id)
		}
		// fₗ(i)⋅G must equal Φₗ(i)
		expected := cs.commitments[id].Phi.Evaluate(selfScalar)
		if !share.ActOnBase().Equal(expected) {
			return nil, fmt.Errorf("frost: party %d: %w", id, ErrInvalidShare)
		}
		privateShare.Add(share)
	}

	publicPoint := cs.summed.Constant()
	verificationShares := make(map[party.ID]curve.Point, len(cs.parties))
	for _, id := range cs.parties {
		verificationShares[id] = cs.summed.Evaluate(id.Scalar(cs.group))
	}

	// BIP-340 keys are x-only, implying an even y coordinate. If the joint
	// key has an odd one, negating every share keeps the shares consistent
	// with the negated key.
	if !publicPoint.(*curve.Secp256k1Point).HasEvenY() {
		privateShare.Negate()
		publicPoint = publicPoint.Negate()
		for id, v := range verificationShares {
			verificationShares[id] = v.Negate()
		}
	}

	if privateShare.IsZero() {
		return nil, errors.New("frost: derived share is zero")
	}

	return &Config{
		group:              cs.group,
		ID:                 selfID,
		Threshold:          cs.threshold,
		PartyIDs:           cs.parties,
		PrivateShare:       privateShare,
		PublicPoint:        publicPoint,
		VerificationShares: verificationShares,
	}, nil
}
