package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitments(t *testing.T) {
	payload := `{"party_index": 1, "keygen_input": "aabb", "type": "keygen_round1"}
	{"party_index": 2, "keygen_input": "ccdd", "type": "keygen_round1"}`

	msgs, err := Commitments(payload)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.EqualValues(t, 1, msgs[0].PartyIndex)
	assert.Equal(t, "aabb", msgs[0].KeygenInput)
	assert.EqualValues(t, 2, msgs[1].PartyIndex)
}

func TestCommitmentsRejectsWrongType(t *testing.T) {
	payload := `{"party_index": 1, "keygen_input": "aabb", "type": "signing_nonce"}`
	_, err := Commitments(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keygen_round1")
}

func TestCommitmentsRejectsMalformedObject(t *testing.T) {
	_, err := Commitments(`{"party_index": }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed object")
}

func TestShares(t *testing.T) {
	payload := `{"party_index": 2, "shares": [{"to_index": 1, "share": "00"}, {"to_index": 2, "share": "01"}], "type": "keygen_round2"}`
	msgs, err := Shares(payload)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.EqualValues(t, 2, msgs[0].PartyIndex)
	require.Len(t, msgs[0].Shares, 2)
	assert.EqualValues(t, 1, msgs[0].Shares[0].ToIndex)
}

func TestNonces(t *testing.T) {
	payload := `{"party_index": 3, "session": "s1", "nonce": "ff00", "type": "signing_nonce"}`
	msgs, err := Nonces(payload)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "s1", msgs[0].Session)
	assert.Equal(t, "ff00", msgs[0].Nonce)
}

func TestSignatureShares(t *testing.T) {
	payload := `{"party_index": 1, "session": "s1", "message": "hello", "signature_share": "ab", "type": "signing_share"}`
	msgs, err := SignatureShares(payload)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Message)
}

func TestDecodeHex(t *testing.T) {
	data, err := DecodeHex("share", "00ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, data)

	_, err = DecodeHex("share", "not-hex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share")
}

func TestEncodeHexLowercase(t *testing.T) {
	assert.Equal(t, "00ff", EncodeHex([]byte{0x00, 0xff}))
}
