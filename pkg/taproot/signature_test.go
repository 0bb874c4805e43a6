package taproot

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	sk, pk, err := GenKey(rand.Reader)
	require.NoError(t, err)

	m := TaggedHash("test/message", []byte("hello world"))
	sig, err := sk.Sign(rand.Reader, m)
	require.NoError(t, err)
	assert.Len(t, []byte(sig), SignatureLength)
	assert.True(t, pk.Verify(sig, m))
}

func TestSignDeterministic(t *testing.T) {
	sk, pk, err := GenKey(rand.Reader)
	require.NoError(t, err)

	m := TaggedHash("test/message", []byte("deterministic"))
	sig, err := sk.Sign(nil, m)
	require.NoError(t, err)
	assert.True(t, pk.Verify(sig, m))
}

func TestVerifyRejectsTamper(t *testing.T) {
	sk, pk, err := GenKey(rand.Reader)
	require.NoError(t, err)

	m := TaggedHash("test/message", []byte("original"))
	sig, err := sk.Sign(rand.Reader, m)
	require.NoError(t, err)

	bad := make(Signature, len(sig))
	copy(bad, sig)
	bad[40] ^= 1
	assert.False(t, pk.Verify(bad, m))

	other := TaggedHash("test/message", []byte("different"))
	assert.False(t, pk.Verify(sig, other))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	sk, _, err := GenKey(rand.Reader)
	require.NoError(t, err)
	_, otherPK, err := GenKey(rand.Reader)
	require.NoError(t, err)

	m := TaggedHash("test/message", []byte("msg"))
	sig, err := sk.Sign(rand.Reader, m)
	require.NoError(t, err)
	assert.False(t, otherPK.Verify(sig, m))
}

func TestVerifyRejectsBadLengths(t *testing.T) {
	_, pk, err := GenKey(rand.Reader)
	require.NoError(t, err)
	m := TaggedHash("test/message", []byte("msg"))
	assert.False(t, pk.Verify(make(Signature, 63), m))
	assert.False(t, PublicKey(make([]byte, 31)).Verify(make(Signature, 64), m))
}

func TestTaggedHashDomains(t *testing.T) {
	a := TaggedHash("tag-a", []byte("data"))
	b := TaggedHash("tag-b", []byte("data"))
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}
