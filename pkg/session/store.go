// Package session provides the persistence layer of the workflow: a small
// key/value store holding per-phase artifacts, keyed by a namespace and an
// artifact name.
//
// All continuity between protocol rounds flows through a Store; no phase
// holds state only in memory across invocations.
package session

import "errors"

// ErrNotExist is returned by Get when the requested artifact was never
// written. Callers use it to distinguish "run the previous step first"
// from a genuine storage failure.
var ErrNotExist = errors.New("session: artifact does not exist")

// Store is the key/value interface every orchestrator phase reads from and
// writes to.
//
// Namespaces separate lifecycles: one for key generation, one per signing
// session. A Store assumes a single local operator with one command in
// flight at a time; concurrent writers against the same backing state are
// unsupported.
type Store interface {
	// Put writes one artifact, overwriting any previous value.
	Put(namespace, key string, value []byte) error
	// PutAll writes a batch of artifacts belonging to one phase, publishing
	// either all of them or none.
	PutAll(namespace string, values map[string][]byte) error
	// Get reads an artifact back, returning an error wrapping ErrNotExist
	// if it was never written.
	Get(namespace, key string) ([]byte, error)
}

// Artifact names under the key-generation namespace.
const (
	NamespaceKeygen = "keygen"

	// KeyRound1State is the structured round-1 record: own index,
	// threshold, and party set.
	KeyRound1State = "round1_state"
	// KeyContribution is the opaque private polynomial record.
	KeyContribution = "contribution"
	// KeySecretShares is the structured map of outbound per-recipient
	// secret shares.
	KeySecretShares = "secret_shares"
	// KeyCommitments is the raw relay payload of all commitments, stored
	// verbatim for re-validation at finalization.
	KeyCommitments = "commitments"
	// KeyConfig is the opaque terminal keygen artifact: the finalized
	// share and the group key material.
	KeyConfig = "config"
	// KeyGroupKey is the 32-byte x-only group public key.
	KeyGroupKey = "group_key"
)

// Artifact names under a signing-session namespace.
const (
	// KeyNonce is the opaque secret nonce record, including its consumed
	// marker.
	KeyNonce = "nonce"
	// KeyFinalNonce is the x-only aggregated public nonce of the session.
	KeyFinalNonce = "final_nonce"
	// KeySessionNonces is the structured public-nonce set needed to
	// recreate the session context.
	KeySessionNonces = "session_nonces"
)

// SignNamespace returns the namespace of one signing session.
func SignNamespace(sessionID string) string {
	return "sign-" + sessionID
}
