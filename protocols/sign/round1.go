package sign

import (
	"github.com/pkg/errors"

	"github.com/frostrelay/frostrelay/pkg/frost"
	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/pkg/session"
)

// GenerateNonce derives a fresh nonce pair for the session and returns its
// public commitment for relay.
//
// Re-running for the same session overwrites the stored nonce: the old
// pair becomes unusable, which is safe, while the new one is unconsumed.
func (s *Signer) GenerateNonce(sessionID string) (*relay.NonceMessage, error) {
	config, err := s.loadConfig()
	if err != nil {
		return nil, errors.WithMessage(err, "sign.GenerateNonce")
	}

	nonce, err := frost.GenerateNonce(config, sessionID, s.rand)
	if err != nil {
		return nil, errors.WithMessage(err, "sign.GenerateNonce")
	}
	nonceData, err := nonce.MarshalBinary()
	if err != nil {
		return nil, errors.WithMessage(err, "sign.GenerateNonce: encode nonce")
	}
	if err := s.store.Put(session.SignNamespace(sessionID), session.KeyNonce, nonceData); err != nil {
		return nil, errors.WithMessage(err, "sign.GenerateNonce: persist nonce")
	}

	public, err := nonce.Public().MarshalBinary()
	if err != nil {
		return nil, errors.WithMessage(err, "sign.GenerateNonce: encode commitment")
	}

	s.log.Info().
		Uint16("party", uint16(config.ID)).
		Str("session", sessionID).
		Msg("nonce generated")

	return &relay.NonceMessage{
		PartyIndex: config.ID,
		Session:    sessionID,
		Nonce:      relay.EncodeHex(public),
		Type:       relay.TypeSigningNonce,
	}, nil
}
