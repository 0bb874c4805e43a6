package sign

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/frostrelay/frostrelay/pkg/frost"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/pkg/session"
)

// indexNonces decodes the relayed nonce messages into a map keyed by
// party, rejecting duplicates, unknown parties, and entries for other
// sessions.
func (s *Signer) indexNonces(msgs []relay.NonceMessage, config *frost.Config, sessionID string) (map[party.ID]*frost.NonceCommitment, error) {
	nonces := make(map[party.ID]*frost.NonceCommitment, len(msgs))
	for _, msg := range msgs {
		if !config.PartyIDs.Contains(msg.PartyIndex) {
			return nil, errors.Errorf("party index %d outside the party set", msg.PartyIndex)
		}
		if _, ok := nonces[msg.PartyIndex]; ok {
			return nil, errors.Errorf("duplicate nonce from party %d", msg.PartyIndex)
		}
		if msg.Session != sessionID {
			return nil, errors.Errorf("party %d: nonce belongs to session %s, not %s", msg.PartyIndex, msg.Session, sessionID)
		}
		data, err := relay.DecodeHex("nonce", msg.Nonce)
		if err != nil {
			return nil, err
		}
		n := frost.EmptyNonceCommitment(s.group)
		if err := n.UnmarshalBinary(data); err != nil {
			return nil, errors.WithMessagef(err, "nonce from party %d", msg.PartyIndex)
		}
		nonces[msg.PartyIndex] = n
	}
	return nonces, nil
}

// CreateShare builds the session context over the relayed nonces and
// produces this party's signature share for the message.
//
// The stored nonce is refused if it already signed: the consumed marker is
// published atomically with the session context, so a second invocation
// for the same session cannot produce a share for a different message.
func (s *Signer) CreateShare(sessionID string, message string, data string) (*relay.SignatureShareMessage, error) {
	config, err := s.loadConfig()
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare")
	}
	nonce, err := s.loadNonce(sessionID)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare")
	}
	if nonce.Consumed {
		return nil, errors.WithMessagef(frost.ErrNonceConsumed, "sign.CreateShare: session %s", sessionID)
	}

	msgs, err := relay.Nonces(data)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare: parse nonces")
	}
	nonces, err := s.indexNonces(msgs, config, sessionID)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare")
	}
	if len(nonces) < int(config.Threshold) {
		return nil, errors.Errorf("sign.CreateShare: have %d nonces, need at least %d", len(nonces), config.Threshold)
	}
	own, ok := nonces[config.ID]
	if !ok {
		return nil, errors.Errorf("sign.CreateShare: own nonce for party %d missing from the relayed set", config.ID)
	}
	if !nonce.Public().Equal(own) {
		return nil, errors.Errorf("sign.CreateShare: relayed nonce for party %d does not match the stored one", config.ID)
	}

	signSession, err := frost.NewSignSession(config, []byte(message), nonces)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare: build session")
	}
	share, err := signSession.SignatureShare(config.ID, nonce, config.PrivateShare)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare: create share")
	}
	shareData, err := share.MarshalBinary()
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare: encode share")
	}

	sessionNonces := make(map[party.ID]string, len(nonces))
	for id, n := range nonces {
		data, err := n.MarshalBinary()
		if err != nil {
			return nil, errors.WithMessagef(err, "sign.CreateShare: encode nonce of party %d", id)
		}
		sessionNonces[id] = relay.EncodeHex(data)
	}
	sessionNoncesData, err := json.Marshal(sessionNonces)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare: encode nonce set")
	}
	nonce.Consumed = true
	nonceData, err := nonce.MarshalBinary()
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare: encode nonce")
	}
	err = s.store.PutAll(session.SignNamespace(sessionID), map[string][]byte{
		session.KeySessionNonces: sessionNoncesData,
		session.KeyFinalNonce:    signSession.AggregatedNonce(),
		session.KeyNonce:         nonceData,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "sign.CreateShare: persist session")
	}

	s.log.Info().
		Uint16("party", uint16(config.ID)).
		Str("session", sessionID).
		Int("signers", len(nonces)).
		Msg("signature share created")

	return &relay.SignatureShareMessage{
		PartyIndex:     config.ID,
		Session:        sessionID,
		Message:        message,
		SignatureShare: relay.EncodeHex(shareData),
		Type:           relay.TypeSigningShare,
	}, nil
}
