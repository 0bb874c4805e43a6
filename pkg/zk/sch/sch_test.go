package zksch

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostrelay/frostrelay/internal/hash"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/math/sample"
)

var group = curve.Secp256k1{}

func transcript(tag string) *hash.Hash {
	return hash.New(hash.BytesWithDomain{TheDomain: "test", Bytes: []byte(tag)})
}

func TestProofRoundTrip(t *testing.T) {
	x := sample.ScalarUnit(rand.Reader, group)
	X := x.ActOnBase()

	proof, err := NewProof(transcript("alice"), X, x, rand.Reader)
	require.NoError(t, err)
	assert.True(t, proof.Verify(transcript("alice"), X))
}

func TestProofWrongTranscript(t *testing.T) {
	x := sample.ScalarUnit(rand.Reader, group)
	X := x.ActOnBase()

	proof, err := NewProof(transcript("alice"), X, x, rand.Reader)
	require.NoError(t, err)
	assert.False(t, proof.Verify(transcript("bob"), X), "a proof bound to one identity must not verify under another")
}

func TestProofWrongPublic(t *testing.T) {
	x := sample.ScalarUnit(rand.Reader, group)
	other := sample.ScalarUnit(rand.Reader, group).ActOnBase()

	proof, err := NewProof(transcript("alice"), x.ActOnBase(), x, rand.Reader)
	require.NoError(t, err)
	assert.False(t, proof.Verify(transcript("alice"), other))
}

func TestProofMarshalRoundTrip(t *testing.T) {
	x := sample.ScalarUnit(rand.Reader, group)
	X := x.ActOnBase()

	proof, err := NewProof(transcript("alice"), X, x, rand.Reader)
	require.NoError(t, err)
	data, err := proof.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 65)

	decoded := EmptyProof(group)
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.True(t, decoded.Verify(transcript("alice"), X))

	assert.Error(t, EmptyProof(group).UnmarshalBinary(data[:32]))
}

func TestProofNilSafety(t *testing.T) {
	var p *Proof
	x := sample.ScalarUnit(rand.Reader, group)
	assert.False(t, p.Verify(transcript("alice"), x.ActOnBase()))
	assert.False(t, (&Proof{}).Verify(transcript("alice"), x.ActOnBase()))
}
