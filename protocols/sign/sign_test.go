package sign

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/frostrelay/frostrelay/pkg/frost"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/pkg/session"
	"github.com/frostrelay/frostrelay/pkg/taproot"
	"github.com/frostrelay/frostrelay/protocols/keygen"
)

func payload(t *testing.T, msgs ...interface{}) string {
	t.Helper()
	var b strings.Builder
	for _, m := range msgs {
		data, err := json.Marshal(m)
		require.NoError(t, err)
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String()
}

// setupKeygen runs the full key-generation workflow for n parties and
// returns one store per party, each holding a finalized key share.
func setupKeygen(t *testing.T, threshold, n int) []*session.MemStore {
	t.Helper()
	stores := make([]*session.MemStore, n)
	drivers := make([]*keygen.Keygen, n)

	commitments := make([]interface{}, n)
	for i := range stores {
		stores[i] = session.NewMemStore()
		drivers[i] = keygen.New(stores[i], zerolog.Nop())
		msg, err := drivers[i].Round1(party.Size(threshold), n, party.ID(i+1))
		require.NoError(t, err)
		commitments[i] = msg
	}
	commitmentPayload := payload(t, commitments...)

	shares := make([]interface{}, n)
	for i := range drivers {
		msg, err := drivers[i].Round2(commitmentPayload)
		require.NoError(t, err)
		shares[i] = msg
	}
	sharePayload := payload(t, shares...)

	for i := range drivers {
		_, err := drivers[i].Finalize(sharePayload)
		require.NoError(t, err)
	}
	return stores
}

func groupKey(t *testing.T, store session.Store) taproot.PublicKey {
	t.Helper()
	key, err := store.Get(session.NamespaceKeygen, session.KeyGroupKey)
	require.NoError(t, err)
	return taproot.PublicKey(key)
}

func TestSignEndToEnd(t *testing.T) {
	stores := setupKeygen(t, 2, 3)
	sessionID := uuid.NewString()
	message := "send 1 BTC to Bob"

	// parties 1 and 3 sign, party 2 sits out
	signers := []int{0, 2}
	drivers := make(map[int]*Signer, len(signers))
	nonceMsgs := make([]interface{}, len(signers))
	for i, idx := range signers {
		drivers[idx] = New(stores[idx], zerolog.Nop())
		msg, err := drivers[idx].GenerateNonce(sessionID)
		require.NoError(t, err)
		nonceMsgs[i] = msg
	}
	noncePayload := payload(t, nonceMsgs...)

	shareMsgs := make([]interface{}, len(signers))
	var group errgroup.Group
	for i, idx := range signers {
		i, idx := i, idx
		group.Go(func() error {
			msg, err := drivers[idx].CreateShare(sessionID, message, noncePayload)
			shareMsgs[i] = msg
			return err
		})
	}
	require.NoError(t, group.Wait())
	sharePayload := payload(t, shareMsgs...)

	sig, err := drivers[0].Combine(sharePayload)
	require.NoError(t, err)
	require.Len(t, []byte(sig), taproot.SignatureLength)

	// the signature verifies under the key of a party that never signed
	assert.True(t, groupKey(t, stores[1]).Verify(sig, frost.MessageHash([]byte(message))))
}

func TestGenerateNonceRequiresConfig(t *testing.T) {
	s := New(session.NewMemStore(), zerolog.Nop())
	_, err := s.GenerateNonce("s1")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNotExist)
	assert.Contains(t, err.Error(), "keygen-finalize")
}

func TestCreateShareRequiresNonce(t *testing.T) {
	stores := setupKeygen(t, 2, 2)
	s := New(stores[0], zerolog.Nop())
	_, err := s.CreateShare("s1", "msg", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign-nonce")
}

func TestCreateShareBelowThreshold(t *testing.T) {
	stores := setupKeygen(t, 2, 3)
	sessionID := "solo"
	s := New(stores[0], zerolog.Nop())
	nonce, err := s.GenerateNonce(sessionID)
	require.NoError(t, err)

	_, err = s.CreateShare(sessionID, "msg", payload(t, nonce))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "have 1 nonces, need at least 2")
}

func TestCreateShareRefusesConsumedNonce(t *testing.T) {
	stores := setupKeygen(t, 2, 2)
	sessionID := "once"

	s1 := New(stores[0], zerolog.Nop())
	s2 := New(stores[1], zerolog.Nop())
	n1, err := s1.GenerateNonce(sessionID)
	require.NoError(t, err)
	n2, err := s2.GenerateNonce(sessionID)
	require.NoError(t, err)
	noncePayload := payload(t, n1, n2)

	_, err = s1.CreateShare(sessionID, "first message", noncePayload)
	require.NoError(t, err)

	_, err = s1.CreateShare(sessionID, "second message", noncePayload)
	require.Error(t, err)
	assert.ErrorIs(t, err, frost.ErrNonceConsumed)
}

func TestGenerateNonceOverwrites(t *testing.T) {
	stores := setupKeygen(t, 2, 2)
	sessionID := "redo"

	s1 := New(stores[0], zerolog.Nop())
	s2 := New(stores[1], zerolog.Nop())
	stale, err := s1.GenerateNonce(sessionID)
	require.NoError(t, err)
	fresh, err := s1.GenerateNonce(sessionID)
	require.NoError(t, err)
	assert.NotEqual(t, stale.Nonce, fresh.Nonce)

	n2, err := s2.GenerateNonce(sessionID)
	require.NoError(t, err)

	// the stale commitment no longer matches the stored nonce
	_, err = s1.CreateShare(sessionID, "msg", payload(t, stale, n2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match the stored one")

	_, err = s1.CreateShare(sessionID, "msg", payload(t, fresh, n2))
	require.NoError(t, err)
}

func TestCreateShareRejectsForeignSession(t *testing.T) {
	stores := setupKeygen(t, 2, 2)

	s1 := New(stores[0], zerolog.Nop())
	s2 := New(stores[1], zerolog.Nop())
	n1, err := s1.GenerateNonce("a")
	require.NoError(t, err)
	n2, err := s2.GenerateNonce("b")
	require.NoError(t, err)

	_, err = s1.CreateShare("a", "msg", payload(t, n1, n2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session b")
}

func TestCombineTamperedShareNamesSender(t *testing.T) {
	stores := setupKeygen(t, 2, 2)
	sessionID := uuid.NewString()
	message := "msg"

	s1 := New(stores[0], zerolog.Nop())
	s2 := New(stores[1], zerolog.Nop())
	n1, err := s1.GenerateNonce(sessionID)
	require.NoError(t, err)
	n2, err := s2.GenerateNonce(sessionID)
	require.NoError(t, err)
	noncePayload := payload(t, n1, n2)

	m1, err := s1.CreateShare(sessionID, message, noncePayload)
	require.NoError(t, err)
	m2, err := s2.CreateShare(sessionID, message, noncePayload)
	require.NoError(t, err)

	raw, err := relay.DecodeHex("signature_share", m2.SignatureShare)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 1
	m2.SignatureShare = relay.EncodeHex(raw)

	_, err = s1.Combine(payload(t, m1, m2))
	require.Error(t, err)
	assert.ErrorIs(t, err, frost.ErrInvalidShare)
	assert.Contains(t, err.Error(), "party 2")
}

func TestCombineRejectsMixedMessages(t *testing.T) {
	stores := setupKeygen(t, 2, 2)
	sessionID := uuid.NewString()

	s1 := New(stores[0], zerolog.Nop())
	s2 := New(stores[1], zerolog.Nop())
	n1, err := s1.GenerateNonce(sessionID)
	require.NoError(t, err)
	n2, err := s2.GenerateNonce(sessionID)
	require.NoError(t, err)
	noncePayload := payload(t, n1, n2)

	m1, err := s1.CreateShare(sessionID, "msg", noncePayload)
	require.NoError(t, err)
	m2, err := s2.CreateShare(sessionID, "msg", noncePayload)
	require.NoError(t, err)
	m2.Message = "other"

	_, err = s1.Combine(payload(t, m1, m2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different message")
}
