package frost

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/math/sample"
	"github.com/frostrelay/frostrelay/pkg/party"
)

var group = curve.Secp256k1{}

// runKeygen drives the full key-generation math for every party in
// memory, returning each party's terminal config.
func runKeygen(t *testing.T, threshold party.Size, parties party.IDSlice) map[party.ID]*Config {
	t.Helper()

	contributions := make(map[party.ID]*Contribution, len(parties))
	commitments := make(map[party.ID]*Commitment, len(parties))
	for _, id := range parties {
		c, err := NewContribution(group, id, threshold, parties, rand.Reader)
		require.NoError(t, err)
		contributions[id] = c
		commitments[id] = c.Commitment
	}

	configs := make(map[party.ID]*Config, len(parties))
	for _, id := range parties {
		cs, err := VerifyCommitments(group, threshold, parties, commitments)
		require.NoError(t, err)

		inbound := make(map[party.ID]curve.Scalar, len(parties))
		for _, from := range parties {
			inbound[from] = contributions[from].Shares[id]
		}
		config, err := cs.DeriveShare(id, inbound)
		require.NoError(t, err)
		configs[id] = config
	}
	return configs
}

func TestKeygenAllPartiesAgreeOnGroupKey(t *testing.T) {
	parties := party.Sequence(3)
	configs := runKeygen(t, 2, parties)

	reference := configs[1].PublicKey()
	for _, id := range parties {
		assert.Equal(t, reference, configs[id].PublicKey(), "party %d derived a different group key", id)
		assert.True(t, configs[id].PublicPoint.(*curve.Secp256k1Point).HasEvenY())
	}
}

func TestNewContributionValidation(t *testing.T) {
	parties := party.Sequence(3)

	_, err := NewContribution(group, 1, 4, parties, rand.Reader)
	assert.Error(t, err, "threshold above the party count must be rejected")

	_, err = NewContribution(group, 5, 2, parties, rand.Reader)
	assert.Error(t, err, "own index outside the party set must be rejected")

	_, err = NewContribution(group, 1, 0, parties, rand.Reader)
	assert.Error(t, err, "threshold zero must be rejected")
}

func TestVerifyCommitmentsRejectsBadPoP(t *testing.T) {
	parties := party.Sequence(3)
	commitments := make(map[party.ID]*Commitment, len(parties))
	for _, id := range parties {
		c, err := NewContribution(group, id, 2, parties, rand.Reader)
		require.NoError(t, err)
		commitments[id] = c.Commitment
	}

	// swap party 2's proof for party 3's: both are valid proofs, but each
	// is bound to its owner's index
	commitments[2] = &Commitment{Phi: commitments[2].Phi, Pop: commitments[3].Pop}

	_, err := VerifyCommitments(group, 2, parties, commitments)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPoP)
	assert.Contains(t, err.Error(), "party 2")
}

func TestVerifyCommitmentsCountMismatch(t *testing.T) {
	parties := party.Sequence(3)
	c, err := NewContribution(group, 1, 2, parties, rand.Reader)
	require.NoError(t, err)

	_, err = VerifyCommitments(group, 2, parties, map[party.ID]*Commitment{1: c.Commitment})
	assert.Error(t, err)
}

func TestDeriveShareRejectsTamperedShare(t *testing.T) {
	parties := party.Sequence(3)
	contributions := make(map[party.ID]*Contribution, len(parties))
	commitments := make(map[party.ID]*Commitment, len(parties))
	for _, id := range parties {
		c, err := NewContribution(group, id, 2, parties, rand.Reader)
		require.NoError(t, err)
		contributions[id] = c
		commitments[id] = c.Commitment
	}

	cs, err := VerifyCommitments(group, 2, parties, commitments)
	require.NoError(t, err)

	inbound := make(map[party.ID]curve.Scalar, len(parties))
	for _, from := range parties {
		inbound[from] = contributions[from].Shares[1]
	}
	inbound[3] = sample.Scalar(rand.Reader, group)

	_, err = cs.DeriveShare(1, inbound)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidShare)
	assert.Contains(t, err.Error(), "party 3")
}

func TestCommitmentMarshalRoundTrip(t *testing.T) {
	parties := party.Sequence(3)
	c, err := NewContribution(group, 2, 2, parties, rand.Reader)
	require.NoError(t, err)

	data, err := c.Commitment.MarshalBinary()
	require.NoError(t, err)

	decoded := EmptyCommitment(group)
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.True(t, decoded.Phi.Equal(c.Commitment.Phi))
	assert.True(t, decoded.Pop.Verify(popTranscript(2), decoded.Phi.Constant()))
}

func TestConfigMarshalRoundTrip(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(3))
	config := configs[2]

	data, err := config.MarshalBinary()
	require.NoError(t, err)

	decoded := EmptyConfig(group)
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, config.ID, decoded.ID)
	assert.Equal(t, config.Threshold, decoded.Threshold)
	assert.Equal(t, config.PartyIDs, decoded.PartyIDs)
	assert.True(t, config.PrivateShare.Equal(decoded.PrivateShare))
	assert.Equal(t, config.PublicKey(), decoded.PublicKey())
}

func TestNonceDerivation(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(2))
	config := configs[1]

	n1, err := GenerateNonce(config, "session-a", rand.Reader)
	require.NoError(t, err)
	n2, err := GenerateNonce(config, "session-a", rand.Reader)
	require.NoError(t, err)

	// fresh entropy makes even same-session nonces distinct
	assert.False(t, n1.Public().Equal(n2.Public()))
}

func TestNonceMarshalRoundTrip(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(2))
	nonce, err := GenerateNonce(configs[1], "session", rand.Reader)
	require.NoError(t, err)
	nonce.Consumed = true

	data, err := nonce.MarshalBinary()
	require.NoError(t, err)

	decoded := EmptyNonce(group)
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.True(t, decoded.Public().Equal(nonce.Public()))
	assert.True(t, decoded.Consumed)
}

// runSign drives one full signing session for a subset of signers.
func runSign(t *testing.T, configs map[party.ID]*Config, signers party.IDSlice, message []byte) (map[party.ID]*SignSession, map[party.ID]curve.Scalar) {
	t.Helper()

	nonces := make(map[party.ID]*Nonce, len(signers))
	commitments := make(map[party.ID]*NonceCommitment, len(signers))
	for _, id := range signers {
		n, err := GenerateNonce(configs[id], "test-session", rand.Reader)
		require.NoError(t, err)
		nonces[id] = n
		commitments[id] = n.Public()
	}

	sessions := make(map[party.ID]*SignSession, len(signers))
	shares := make(map[party.ID]curve.Scalar, len(signers))
	for _, id := range signers {
		session, err := NewSignSession(configs[id], message, commitments)
		require.NoError(t, err)
		sessions[id] = session

		share, err := session.SignatureShare(id, nonces[id], configs[id].PrivateShare)
		require.NoError(t, err)
		shares[id] = share
	}
	return sessions, shares
}

func TestSignSubsetProducesValidSignature(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(3))
	message := []byte("attack at dawn")

	// only 2 of the 3 key-generation participants sign
	signers := party.IDSlice{1, 3}
	sessions, shares := runSign(t, configs, signers, message)

	sig, err := sessions[1].Combine(shares)
	require.NoError(t, err)
	assert.True(t, configs[2].PublicKey().Verify(sig, MessageHash(message)),
		"signature must verify under the group key held by a non-signer")
}

func TestSignAllPartiesProducesValidSignature(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(3))
	message := []byte("unanimous")

	signers := party.Sequence(3)
	sessions, shares := runSign(t, configs, signers, message)

	sig, err := sessions[2].Combine(shares)
	require.NoError(t, err)
	assert.True(t, configs[1].PublicKey().Verify(sig, MessageHash(message)))
}

func TestCombineRejectsTamperedShare(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(3))
	signers := party.IDSlice{1, 2}
	sessions, shares := runSign(t, configs, signers, []byte("message"))

	shares[2] = shares[2].Add(party.ID(1).Scalar(group))

	_, err := sessions[1].Combine(shares)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidShare)
	assert.Contains(t, err.Error(), "party 2")
}

func TestSignSessionBelowThreshold(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(3))

	nonce, err := GenerateNonce(configs[1], "s", rand.Reader)
	require.NoError(t, err)
	_, err = NewSignSession(configs[1], []byte("m"), map[party.ID]*NonceCommitment{1: nonce.Public()})
	assert.Error(t, err, "fewer signers than the threshold must be rejected")
}

func TestSignatureShareRefusesConsumedNonce(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(2))
	message := []byte("m")

	nonces := make(map[party.ID]*Nonce, 2)
	commitments := make(map[party.ID]*NonceCommitment, 2)
	for _, id := range party.Sequence(2) {
		n, err := GenerateNonce(configs[id], "s", rand.Reader)
		require.NoError(t, err)
		nonces[id] = n
		commitments[id] = n.Public()
	}

	session, err := NewSignSession(configs[1], message, commitments)
	require.NoError(t, err)

	nonces[1].Consumed = true
	_, err = session.SignatureShare(1, nonces[1], configs[1].PrivateShare)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonceConsumed)
}

func TestSignatureShareRefusesMismatchedNonce(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(2))

	nonces := make(map[party.ID]*Nonce, 2)
	commitments := make(map[party.ID]*NonceCommitment, 2)
	for _, id := range party.Sequence(2) {
		n, err := GenerateNonce(configs[id], "s", rand.Reader)
		require.NoError(t, err)
		nonces[id] = n
		commitments[id] = n.Public()
	}

	session, err := NewSignSession(configs[1], []byte("m"), commitments)
	require.NoError(t, err)

	// a regenerated nonce no longer matches the relayed commitment
	fresh, err := GenerateNonce(configs[1], "s", rand.Reader)
	require.NoError(t, err)
	_, err = session.SignatureShare(1, fresh, configs[1].PrivateShare)
	assert.Error(t, err)
}

func TestSessionsAgreeOnAggregatedNonce(t *testing.T) {
	configs := runKeygen(t, 2, party.Sequence(3))
	sessions, _ := runSign(t, configs, party.IDSlice{2, 3}, []byte("m"))

	assert.Equal(t, sessions[2].AggregatedNonce(), sessions[3].AggregatedNonce())
	assert.True(t, sessions[2].MatchesAggregatedNonce(sessions[3].AggregatedNonce()))
}
