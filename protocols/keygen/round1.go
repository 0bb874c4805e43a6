package keygen

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/frostrelay/frostrelay/pkg/frost"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/relay"
	"github.com/frostrelay/frostrelay/pkg/session"
)

// Round1 samples this party's secret polynomial, persists the private
// round state, and returns the commitment message to relay to all other
// parties.
//
// All parameters are validated before anything touches the store: a
// rejected configuration leaves no state behind.
func (k *Keygen) Round1(threshold party.Size, nParties int, selfID party.ID) (*relay.CommitmentMessage, error) {
	if nParties < 1 || nParties > party.MaxID {
		return nil, errors.Errorf("keygen.Round1: invalid party count %d", nParties)
	}
	if threshold < 1 || int(threshold) > nParties {
		return nil, errors.Errorf("keygen.Round1: invalid threshold %d for %d parties", threshold, nParties)
	}
	if selfID < 1 || int(selfID) > nParties {
		return nil, errors.Errorf("keygen.Round1: invalid own index %d for %d parties", selfID, nParties)
	}
	parties := party.Sequence(party.Size(nParties))

	contribution, err := frost.NewContribution(k.group, selfID, threshold, parties, k.rand)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round1: generate contribution")
	}

	stateData, err := json.Marshal(&round1State{
		MyIndex:   selfID,
		Threshold: threshold,
		NParties:  nParties,
		Parties:   parties,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round1: encode state")
	}
	contributionData, err := contribution.MarshalBinary()
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round1: encode contribution")
	}
	shares := make(map[party.ID]string, len(contribution.Shares))
	for id, share := range contribution.Shares {
		data, err := share.MarshalBinary()
		if err != nil {
			return nil, errors.WithMessagef(err, "keygen.Round1: encode share for party %d", id)
		}
		shares[id] = relay.EncodeHex(data)
	}
	sharesData, err := json.Marshal(shares)
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round1: encode shares")
	}

	err = k.store.PutAll(session.NamespaceKeygen, map[string][]byte{
		session.KeyRound1State:  stateData,
		session.KeyContribution: contributionData,
		session.KeySecretShares: sharesData,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round1: persist state")
	}

	commitmentData, err := contribution.Commitment.MarshalBinary()
	if err != nil {
		return nil, errors.WithMessage(err, "keygen.Round1: encode commitment")
	}

	k.log.Info().
		Int("round", 1).
		Uint16("party", uint16(selfID)).
		Uint16("threshold", uint16(threshold)).
		Int("n_parties", nParties).
		Msg("commitment generated")

	return &relay.CommitmentMessage{
		PartyIndex:  selfID,
		KeygenInput: relay.EncodeHex(commitmentData),
		Type:        relay.TypeKeygenRound1,
	}, nil
}
