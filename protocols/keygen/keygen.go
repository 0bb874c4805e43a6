// Package keygen orchestrates the three phases of distributed key
// generation: emitting a commitment, exchanging secret shares, and
// deriving the final key share.
//
// Each phase reads its prerequisites from the session store, validates the
// relayed payload, calls into pkg/frost, and publishes its artifacts in a
// single atomic batch before returning the next relay message.
package keygen

import (
	"crypto/rand"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/session"
)

// Keygen drives the key-generation lifecycle against one party's store.
type Keygen struct {
	group curve.Curve
	store session.Store
	rand  io.Reader
	log   zerolog.Logger
}

// New returns a driver bound to the given store.
func New(store session.Store, log zerolog.Logger) *Keygen {
	return &Keygen{
		group: curve.Secp256k1{},
		store: store,
		rand:  rand.Reader,
		log:   log.With().Str("protocol", "keygen").Logger(),
	}
}

// round1State is the structured record persisted by Round1 and required by
// every later phase.
type round1State struct {
	MyIndex   party.ID   `json:"my_index"`
	Threshold party.Size `json:"threshold"`
	NParties  int        `json:"n_parties"`
	Parties   []party.ID `json:"parties"`
}

func (k *Keygen) loadState() (*round1State, error) {
	data, err := k.store.Get(session.NamespaceKeygen, session.KeyRound1State)
	if errors.Is(err, session.ErrNotExist) {
		return nil, errors.WithMessage(err, "no round-1 state, run keygen-round1 first")
	}
	if err != nil {
		return nil, err
	}
	var state round1State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.WithMessage(err, "corrupt round-1 state")
	}
	return &state, nil
}
