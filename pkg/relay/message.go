package relay

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/frostrelay/frostrelay/pkg/party"
)

// Message type tags, one per relay schema.
const (
	TypeKeygenRound1 = "keygen_round1"
	TypeKeygenRound2 = "keygen_round2"
	TypeSigningNonce = "signing_nonce"
	TypeSigningShare = "signing_share"
)

// CommitmentMessage is the phase-1 keygen output of one party: its
// commitment payload, hex-encoded.
type CommitmentMessage struct {
	PartyIndex party.ID `json:"party_index"`
	KeygenInput string  `json:"keygen_input"`
	Type       string   `json:"type"`
}

// ShareEntry is one secret share, destined for one recipient.
type ShareEntry struct {
	ToIndex party.ID `json:"to_index"`
	Share   string   `json:"share"`
}

// ShareMessage is the phase-2 keygen output of one party: one secret share
// per recipient, the sender's own included.
type ShareMessage struct {
	PartyIndex party.ID     `json:"party_index"`
	Shares     []ShareEntry `json:"shares"`
	Type       string       `json:"type"`
}

// NonceMessage is one party's public nonce pair for a signing session.
type NonceMessage struct {
	PartyIndex party.ID `json:"party_index"`
	Session    string   `json:"session"`
	Nonce      string   `json:"nonce"`
	Type       string   `json:"type"`
}

// SignatureShareMessage is one party's signature share, tagged with the
// session and the message it signs.
type SignatureShareMessage struct {
	PartyIndex     party.ID `json:"party_index"`
	Session        string   `json:"session"`
	Message        string   `json:"message"`
	SignatureShare string   `json:"signature_share"`
	Type           string   `json:"type"`
}

// decodeObject parses one raw object into out, quoting the offending text
// on failure.
func decodeObject(raw string, out interface{}) error {
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("relay: malformed object %q: %w", truncate(raw), err)
	}
	return nil
}

func checkType(raw, got, want string) error {
	if got != want {
		return fmt.Errorf("relay: object %q: unexpected type %q, want %q", truncate(raw), got, want)
	}
	return nil
}

// Commitments decodes a payload of CommitmentMessages, preserving relay
// order.
func Commitments(payload string) ([]CommitmentMessage, error) {
	objects, err := Objects(payload)
	if err != nil {
		return nil, err
	}
	out := make([]CommitmentMessage, len(objects))
	for i, raw := range objects {
		if err := decodeObject(raw, &out[i]); err != nil {
			return nil, err
		}
		if err := checkType(raw, out[i].Type, TypeKeygenRound1); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Shares decodes a payload of ShareMessages, preserving relay order.
func Shares(payload string) ([]ShareMessage, error) {
	objects, err := Objects(payload)
	if err != nil {
		return nil, err
	}
	out := make([]ShareMessage, len(objects))
	for i, raw := range objects {
		if err := decodeObject(raw, &out[i]); err != nil {
			return nil, err
		}
		if err := checkType(raw, out[i].Type, TypeKeygenRound2); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Nonces decodes a payload of NonceMessages, preserving relay order.
func Nonces(payload string) ([]NonceMessage, error) {
	objects, err := Objects(payload)
	if err != nil {
		return nil, err
	}
	out := make([]NonceMessage, len(objects))
	for i, raw := range objects {
		if err := decodeObject(raw, &out[i]); err != nil {
			return nil, err
		}
		if err := checkType(raw, out[i].Type, TypeSigningNonce); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SignatureShares decodes a payload of SignatureShareMessages, preserving
// relay order.
func SignatureShares(payload string) ([]SignatureShareMessage, error) {
	objects, err := Objects(payload)
	if err != nil {
		return nil, err
	}
	out := make([]SignatureShareMessage, len(objects))
	for i, raw := range objects {
		if err := decodeObject(raw, &out[i]); err != nil {
			return nil, err
		}
		if err := checkType(raw, out[i].Type, TypeSigningShare); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeHex decodes a hex-encoded cryptographic payload, naming the field
// on failure.
func DecodeHex(field, value string) ([]byte, error) {
	data, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("relay: field %s: invalid hex %q: %w", field, truncate(value), err)
	}
	return data, nil
}

// EncodeHex is the inverse of DecodeHex; all cryptographic payloads travel
// as lowercase hex.
func EncodeHex(data []byte) string {
	return hex.EncodeToString(data)
}
