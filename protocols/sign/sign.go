// Package sign orchestrates the three phases of threshold signing:
// publishing a nonce commitment, producing a signature share, and
// combining the shares into a final signature.
//
// Phases of one signing attempt share a per-session namespace in the
// store. A stored nonce signs at most one message; its consumed marker is
// persisted together with the signature share's session context.
package sign

import (
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/frostrelay/frostrelay/pkg/frost"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/session"
)

// Signer drives the signing lifecycle against one party's store.
type Signer struct {
	group curve.Curve
	store session.Store
	rand  io.Reader
	log   zerolog.Logger
}

// New returns a driver bound to the given store.
func New(store session.Store, log zerolog.Logger) *Signer {
	return &Signer{
		group: curve.Secp256k1{},
		store: store,
		rand:  rand.Reader,
		log:   log.With().Str("protocol", "sign").Logger(),
	}
}

func (s *Signer) loadConfig() (*frost.Config, error) {
	data, err := s.store.Get(session.NamespaceKeygen, session.KeyConfig)
	if errors.Is(err, session.ErrNotExist) {
		return nil, errors.WithMessage(err, "no key share, run keygen-finalize first")
	}
	if err != nil {
		return nil, err
	}
	config := frost.EmptyConfig(s.group)
	if err := config.UnmarshalBinary(data); err != nil {
		return nil, errors.WithMessage(err, "corrupt key share")
	}
	return config, nil
}

func (s *Signer) loadNonce(sessionID string) (*frost.Nonce, error) {
	data, err := s.store.Get(session.SignNamespace(sessionID), session.KeyNonce)
	if errors.Is(err, session.ErrNotExist) {
		return nil, errors.WithMessagef(err, "no nonce for session %s, run sign-nonce first", sessionID)
	}
	if err != nil {
		return nil, err
	}
	nonce := frost.EmptyNonce(s.group)
	if err := nonce.UnmarshalBinary(data); err != nil {
		return nil, errors.WithMessagef(err, "corrupt nonce for session %s", sessionID)
	}
	return nonce, nil
}
