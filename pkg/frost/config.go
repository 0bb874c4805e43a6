package frost

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/party"
	"github.com/frostrelay/frostrelay/pkg/taproot"
)

// Config is the terminal result of key generation for one party: its final
// secret share, the joint public key, and the verification share of every
// party.
//
// All points are normalized for x-only (BIP-340) use: the public point has
// an even y coordinate, and the shares interpolate to its discrete
// logarithm.
type Config struct {
	group curve.Curve

	// ID is the index of the party holding this config.
	ID party.ID
	// Threshold is the number of participants required to sign.
	Threshold party.Size
	// PartyIDs is the sorted set of key-generation participants.
	PartyIDs party.IDSlice
	// PrivateShare is this party's share of the joint secret key.
	PrivateShare curve.Scalar
	// PublicPoint is the joint public key, with even y coordinate.
	PublicPoint curve.Point
	// VerificationShares holds every party's public share, used to verify
	// signature shares.
	VerificationShares map[party.ID]curve.Point
}

// PublicKey returns the x-only joint public key.
func (c *Config) PublicKey() taproot.PublicKey {
	return taproot.PublicKey(c.PublicPoint.(*curve.Secp256k1Point).XBytes())
}

// Group returns the elliptic curve group of the config.
func (c *Config) Group() curve.Curve { return c.group }

type configMarshal struct {
	ID                 party.ID
	Threshold          party.Size
	PartyIDs           []party.ID
	PrivateShare       []byte
	PublicPoint        []byte
	VerificationShares map[party.ID][]byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *Config) MarshalBinary() ([]byte, error) {
	privateShare, err := c.PrivateShare.MarshalBinary()
	if err != nil {
		return nil, err
	}
	publicPoint, err := c.PublicPoint.MarshalBinary()
	if err != nil {
		return nil, err
	}
	verificationShares := make(map[party.ID][]byte, len(c.VerificationShares))
	for id, v := range c.VerificationShares {
		data, err := v.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("frost: config: verification share %d: %w", id, err)
		}
		verificationShares[id] = data
	}
	return cbor.Marshal(&configMarshal{
		ID:                 c.ID,
		Threshold:          c.Threshold,
		PartyIDs:           c.PartyIDs,
		PrivateShare:       privateShare,
		PublicPoint:        publicPoint,
		VerificationShares: verificationShares,
	})
}

// EmptyConfig creates an empty Config with a fixed group, ready for
// unmarshalling.
//
// This needs to be used for unmarshalling, otherwise the points on the
// curve can't be decoded.
func EmptyConfig(group curve.Curve) *Config {
	return &Config{group: group}
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver must
// have been created with EmptyConfig.
func (c *Config) UnmarshalBinary(data []byte) error {
	if c.group == nil {
		return errors.New("frost: config must be initialized using EmptyConfig")
	}
	var cm configMarshal
	if err := cbor.Unmarshal(data, &cm); err != nil {
		return fmt.Errorf("frost: config: %w", err)
	}

	partyIDs := party.NewIDSlice(cm.PartyIDs)
	if !partyIDs.Valid() {
		return errors.New("frost: config: invalid party set")
	}
	if !partyIDs.Contains(cm.ID) {
		return fmt.Errorf("frost: config: own index %d not in party set", cm.ID)
	}
	if cm.Threshold < 1 || int(cm.Threshold) > len(partyIDs) {
		return fmt.Errorf("frost: config: invalid threshold %d", cm.Threshold)
	}

	privateShare := c.group.NewScalar()
	if err := privateShare.UnmarshalBinary(cm.PrivateShare); err != nil {
		return fmt.Errorf("frost: config: private share: %w", err)
	}
	if privateShare.IsZero() {
		return errors.New("frost: config: private share is zero")
	}

	publicPoint := c.group.NewPoint()
	if err := publicPoint.UnmarshalBinary(cm.PublicPoint); err != nil {
		return fmt.Errorf("frost: config: public point: %w", err)
	}
	if !publicPoint.(*curve.Secp256k1Point).HasEvenY() {
		return errors.New("frost: config: public point has odd y coordinate")
	}

	verificationShares := make(map[party.ID]curve.Point, len(partyIDs))
	for _, id := range partyIDs {
		data, ok := cm.VerificationShares[id]
		if !ok {
			return fmt.Errorf("frost: config: missing verification share for party %d", id)
		}
		v := c.group.NewPoint()
		if err := v.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("frost: config: verification share %d: %w", id, err)
		}
		verificationShares[id] = v
	}

	// A config is internally consistent only if our own verification share
	// matches our private share.
	if !privateShare.ActOnBase().Equal(verificationShares[cm.ID]) {
		return errors.New("frost: config: private share does not match verification share")
	}

	c.ID = cm.ID
	c.Threshold = cm.Threshold
	c.PartyIDs = partyIDs
	c.PrivateShare = privateShare
	c.PublicPoint = publicPoint
	c.VerificationShares = verificationShares
	return nil
}
