package sign

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/frostrelay/frostrelay/pkg/frost"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/pkg/session"
	"github.com/frostrelay/frostrelay/pkg/taproot"
)

// Combine rebuilds the session context from the persisted nonce set,
// verifies every relayed signature share, and assembles the final
// signature. The session identifier and the message are taken from the
// first share message; every other message must agree with them.
//
// Combine reads the store but never writes it, so it can be retried with
// corrected payloads.
func (s *Signer) Combine(data string) (taproot.Signature, error) {
	msgs, err := relay.SignatureShares(data)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.Combine: parse shares")
	}
	if len(msgs) == 0 {
		return nil, errors.New("sign.Combine: no signature shares in payload")
	}
	sessionID, message := msgs[0].Session, msgs[0].Message
	for _, msg := range msgs[1:] {
		if msg.Session != sessionID {
			return nil, errors.Errorf("sign.Combine: party %d signed session %s, not %s", msg.PartyIndex, msg.Session, sessionID)
		}
		if msg.Message != message {
			return nil, errors.Errorf("sign.Combine: party %d signed a different message", msg.PartyIndex)
		}
	}

	config, err := s.loadConfig()
	if err != nil {
		return nil, errors.WithMessage(err, "sign.Combine")
	}

	namespace := session.SignNamespace(sessionID)
	sessionNoncesData, err := s.store.Get(namespace, session.KeySessionNonces)
	if errors.Is(err, session.ErrNotExist) {
		return nil, errors.WithMessagef(err, "sign.Combine: no session context for %s, run sign first", sessionID)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "sign.Combine: load nonce set")
	}
	var sessionNonces map[party.ID]string
	if err := json.Unmarshal(sessionNoncesData, &sessionNonces); err != nil {
		return nil, errors.WithMessage(err, "sign.Combine: corrupt nonce set")
	}
	nonces := make(map[party.ID]*frost.NonceCommitment, len(sessionNonces))
	for id, value := range sessionNonces {
		data, err := relay.DecodeHex("nonce", value)
		if err != nil {
			return nil, errors.WithMessage(err, "sign.Combine")
		}
		n := frost.EmptyNonceCommitment(s.group)
		if err := n.UnmarshalBinary(data); err != nil {
			return nil, errors.WithMessagef(err, "sign.Combine: stored nonce of party %d", id)
		}
		nonces[id] = n
	}

	signSession, err := frost.NewSignSession(config, []byte(message), nonces)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.Combine: rebuild session")
	}
	finalNonce, err := s.store.Get(namespace, session.KeyFinalNonce)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.Combine: load aggregated nonce")
	}
	if !signSession.MatchesAggregatedNonce(finalNonce) {
		return nil, errors.New("sign.Combine: rebuilt session does not match the stored aggregated nonce")
	}

	signers := signSession.Signers()
	shares := make(map[party.ID]curve.Scalar, len(msgs))
	for _, msg := range msgs {
		if !signers.Contains(msg.PartyIndex) {
			return nil, errors.Errorf("sign.Combine: party %d is not in the signer set", msg.PartyIndex)
		}
		if _, ok := shares[msg.PartyIndex]; ok {
			return nil, errors.Errorf("sign.Combine: duplicate share from party %d", msg.PartyIndex)
		}
		data, err := relay.DecodeHex("signature_share", msg.SignatureShare)
		if err != nil {
			return nil, errors.WithMessage(err, "sign.Combine")
		}
		share := s.group.NewScalar()
		if err := share.UnmarshalBinary(data); err != nil {
			return nil, errors.WithMessagef(err, "sign.Combine: share from party %d", msg.PartyIndex)
		}
		shares[msg.PartyIndex] = share
	}
	if len(shares) != len(signers) {
		return nil, errors.Errorf("sign.Combine: have %d shares, need %d", len(shares), len(signers))
	}

	sig, err := signSession.Combine(shares)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.Combine")
	}

	s.log.Info().
		Str("session", sessionID).
		Int("signers", len(signers)).
		Msg("signature combined and verified")

	return sig, nil
}
