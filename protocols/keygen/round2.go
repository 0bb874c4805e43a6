package keygen

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/frostrelay/frostrelay/pkg/frost"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/pkg/session"
)

// indexCommitments decodes the relayed commitment messages into a map
// keyed by party, rejecting duplicates and indices outside the party set.
func (k *Keygen) indexCommitments(msgs []relay.CommitmentMessage, parties party.IDSlice) (map[party.ID]*frost.Commitment, error) {
	commitments := make(map[party.ID]*frost.Commitment, len(msgs))
	for _, msg := range msgs {
		if !parties.Contains(msg.PartyIndex) {
			return nil, errors.Errorf("party index %d outside the party set", msg.PartyIndex)
		}
		if _, ok := commitments[msg.PartyIndex]; ok {
			return nil, errors.Errorf("duplicate commitment from party %d", msg.PartyIndex)
		}
		data, err := relay.DecodeHex("keygen_input", msg.KeygenInput)
		if err != nil {
			return nil, err
		}
		c := frost.EmptyCommitment(k.group)
		if err := c.UnmarshalBinary(data); err != nil {
			return nil, errors.WithMessagef(err, "commitment from party %d", msg.PartyIndex)
		}
		commitments[msg.PartyIndex] = c
	}
	return commitments, nil
}

// Round2 validates the relayed commitments of all parties and returns this
// party's secret-share message.
//
// The raw commitment payload is persisted verbatim so that Finalize can
// re-validate it instead of trusting any intermediate representation.
func (k *Keygen) Round2(data string) (*relay.ShareMessage, error) {
	state, err := k.loadState()
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round2")
	}
	parties := party.NewIDSlice(state.Parties)

	msgs, err := relay.Commitments(data)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round2: parse commitments")
	}
	if len(msgs) != state.NParties {
		return nil, errors.Errorf("keygen.Round2: have %d commitments, need %d", len(msgs), state.NParties)
	}
	commitments, err := k.indexCommitments(msgs, parties)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round2")
	}

	if _, err := frost.VerifyCommitments(k.group, state.Threshold, parties, commitments); err != nil {
		return nil, errors.WithMessage(err, "keygen.Round2: verify commitments")
	}

	if err := k.store.Put(session.NamespaceKeygen, session.KeyCommitments, []byte(data)); err != nil {
		return nil, errors.WithMessage(err, "keygen.Round2: persist commitments")
	}

	sharesData, err := k.store.Get(session.NamespaceKeygen, session.KeySecretShares)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round2: load shares")
	}
	var shares map[party.ID]string
	if err := json.Unmarshal(sharesData, &shares); err != nil {
		return nil, errors.WithMessage(err, "keygen.Round2: corrupt share map")
	}
	entries := make([]relay.ShareEntry, 0, len(shares))
	for _, id := range parties {
		share, ok := shares[id]
		if !ok {
			return nil, errors.Errorf("keygen.Round2: no stored share for party %d", id)
		}
		entries = append(entries, relay.ShareEntry{ToIndex: id, Share: share})
	}

	k.log.Info().
		Int("round", 2).
		Uint16("party", uint16(state.MyIndex)).
		Int("commitments", len(commitments)).
		Msg("commitments verified")

	return &relay.ShareMessage{
		PartyIndex: state.MyIndex,
		Shares:     entries,
		Type:       relay.TypeKeygenRound2,
	}, nil
}
