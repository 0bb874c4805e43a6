package keygen

import (
	"github.com/pkg/errors"

	"github.com/frostrelay/frostrelay/pkg/frost"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/pkg/session"
)

// inboundShares extracts the one share addressed to selfID from each
// sender's message.
func (k *Keygen) inboundShares(msgs []relay.ShareMessage, parties party.IDSlice, selfID party.ID) (map[party.ID]curve.Scalar, error) {
	inbound := make(map[party.ID]curve.Scalar, len(msgs))
	for _, msg := range msgs {
		if !parties.Contains(msg.PartyIndex) {
			return nil, errors.Errorf("party index %d outside the party set", msg.PartyIndex)
		}
		if _, ok := inbound[msg.PartyIndex]; ok {
			return nil, errors.Errorf("duplicate share message from party %d", msg.PartyIndex)
		}
		var mine *relay.ShareEntry
		for i := range msg.Shares {
			if msg.Shares[i].ToIndex != selfID {
				continue
			}
			if mine != nil {
				return nil, errors.Errorf("party %d sent more than one share addressed to party %d", msg.PartyIndex, selfID)
			}
			mine = &msg.Shares[i]
		}
		if mine == nil {
			return nil, errors.Errorf("party %d sent no share addressed to party %d", msg.PartyIndex, selfID)
		}
		data, err := relay.DecodeHex("share", mine.Share)
		if err != nil {
			return nil, err
		}
		share := k.group.NewScalar()
		if err := share.UnmarshalBinary(data); err != nil {
			return nil, errors.WithMessagef(err, "share from party %d", msg.PartyIndex)
		}
		inbound[msg.PartyIndex] = share
	}
	return inbound, nil
}

// Finalize verifies every inbound secret share against its sender's
// commitment and derives this party's final key share and the joint
// public key. The commitments are re-validated from the blob persisted by
// Round2, not from in-memory state.
func (k *Keygen) Finalize(data string) (*frost.Config, error) {
	state, err := k.loadState()
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize")
	}
	parties := party.NewIDSlice(state.Parties)

	commitmentsBlob, err := k.store.Get(session.NamespaceKeygen, session.KeyCommitments)
	if errors.Is(err, session.ErrNotExist) {
		return nil, errors.WithMessage(err, "keygen.Finalize: no stored commitments, run keygen-round2 first")
	}
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize: load commitments")
	}
	commitmentMsgs, err := relay.Commitments(string(commitmentsBlob))
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize: parse stored commitments")
	}
	if len(commitmentMsgs) != state.NParties {
		return nil, errors.Errorf("keygen.Finalize: have %d stored commitments, need %d", len(commitmentMsgs), state.NParties)
	}
	commitments, err := k.indexCommitments(commitmentMsgs, parties)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize")
	}
	commitmentSet, err := frost.VerifyCommitments(k.group, state.Threshold, parties, commitments)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize: verify commitments")
	}

	msgs, err := relay.Shares(data)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize: parse shares")
	}
	if len(msgs) != state.NParties {
		return nil, errors.Errorf("keygen.Finalize: have %d share messages, need %d", len(msgs), state.NParties)
	}
	inbound, err := k.inboundShares(msgs, parties, state.MyIndex)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize")
	}

	config, err := commitmentSet.DeriveShare(state.MyIndex, inbound)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize: derive share")
	}

	configData, err := config.MarshalBinary()
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize: encode config")
	}
	err = k.store.PutAll(session.NamespaceKeygen, map[string][]byte{
		session.KeyConfig:   configData,
		session.KeyGroupKey: config.PublicKey(),
	})
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Finalize: persist config")
	}

	k.log.Info().
		Uint16("party", uint16(state.MyIndex)).
		Str("group_key", relay.EncodeHex(config.PublicKey())).
		Msg("key generation finalized")

	return config, nil
}
