package taproot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/frostrelay/frostrelay/pkg/math/curve"
)

// TaggedHash adds some domain separation to SHA-256.
//
// This is the hash_tag function mentioned in BIP-340.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#specification
func TaggedHash(tag string, datas ...[]byte) []byte {
	tagSum := sha256.Sum256([]byte(tag))

	h := sha256.New()
	h.Write(tagSum[:])
	h.Write(tagSum[:])
	for _, data := range datas {
		h.Write(data)
	}
	return h.Sum(nil)
}

// SecretKeyLength is the number of bytes in a SecretKey.
const SecretKeyLength = 32

// PublicKeyLength is the number of bytes in a PublicKey.
const PublicKeyLength = 32

// SignatureLength is the number of bytes in a Signature.
const SignatureLength = 64

// SecretKey represents a secret key for BIP-340 signatures.
//
// This is simply an array of 32 bytes.
type SecretKey []byte

// PublicKey represents an x-only public key for BIP-340 signatures.
//
// This is simply an array of 32 bytes: the x coordinate of a point whose y
// coordinate is even.
type PublicKey []byte

// Public calculates the public key corresponding to a given secret key.
//
// This will return an error if the secret key is invalid.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#public-key-generation
func (sk SecretKey) Public() (PublicKey, error) {
	scalar := new(curve.Secp256k1Scalar)
	if err := scalar.UnmarshalBinary(sk); err != nil || scalar.IsZero() {
		return nil, fmt.Errorf("taproot: invalid secret key")
	}
	point := scalar.ActOnBase().(*curve.Secp256k1Point)
	return PublicKey(point.XBytes()), nil
}

// GenKey generates a new key-pair, from a source of randomness.
//
// Errors returned by this function will only come from the reader.
func GenKey(rand io.Reader) (SecretKey, PublicKey, error) {
	for {
		secret := SecretKey(make([]byte, SecretKeyLength))
		if _, err := io.ReadFull(rand, secret); err != nil {
			return nil, nil, err
		}
		if public, err := secret.Public(); err == nil {
			return secret, public, nil
		}
	}
}

// Signature represents a signature according to BIP-340.
//
// This is exactly SignatureLength = 64 bytes long: the x coordinate of the
// nonce point R, followed by the response scalar z.
type Signature []byte

// signatureCounter hedges against fault attacks when no source of
// randomness is passed to Sign.
var signatureCounter uint64

// Sign uses a secret key to create a new signature.
//
// Note that m should be the hash of a message, and not the actual message.
//
// This accepts a source of randomness, but nil can be passed to use entirely
// deterministic nonces, in which case an atomic counter hardens the
// derivation instead.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#default-signing
func (sk SecretKey) Sign(rand io.Reader, m []byte) (Signature, error) {
	d := new(curve.Secp256k1Scalar)
	if err := d.UnmarshalBinary(sk); err != nil || d.IsZero() {
		return nil, fmt.Errorf("taproot: invalid secret key")
	}

	P := d.ActOnBase().(*curve.Secp256k1Point)
	PBytes := P.XBytes()

	if !P.HasEvenY() {
		d.Negate()
	}

	a := make([]byte, 32)
	k := new(curve.Secp256k1Scalar)
	for k.IsZero() {
		if rand != nil {
			if _, err := io.ReadFull(rand, a); err != nil {
				return nil, err
			}
		} else {
			ctr := atomic.AddUint64(&signatureCounter, 1)
			binary.BigEndian.PutUint64(a, ctr)
		}

		t, _ := d.MarshalBinary()
		aHash := TaggedHash("BIP0340/aux", a)
		for i := 0; i < 32; i++ {
			t[i] ^= aHash[i]
		}

		randHash := TaggedHash("BIP0340/nonce", t, PBytes, m)

		if err := k.UnmarshalBinary(randHash); err != nil {
			continue
		}
	}

	R := k.ActOnBase().(*curve.Secp256k1Point)
	if !R.HasEvenY() {
		k.Negate()
	}
	RBytes := R.XBytes()

	eHash := TaggedHash("BIP0340/challenge", RBytes, PBytes, m)
	e := curve.FromHash(curve.Secp256k1{}, eHash)

	z := e.Mul(d).Add(k)
	zBytes, _ := z.MarshalBinary()

	sig := make([]byte, 0, SignatureLength)
	sig = append(sig, RBytes...)
	sig = append(sig, zBytes...)

	return Signature(sig), nil
}

// Verify checks the integrity of a signature, using a public key.
//
// Note that m is the hash of a message, and not the message itself.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#verification
func (pk PublicKey) Verify(sig Signature, m []byte) bool {
	if len(sig) != SignatureLength || len(pk) != PublicKeyLength {
		return false
	}

	P, err := curve.Secp256k1{}.LiftX(pk)
	if err != nil {
		return false
	}
	z := new(curve.Secp256k1Scalar)
	if err := z.UnmarshalBinary(sig[32:]); err != nil {
		return false
	}

	eHash := TaggedHash("BIP0340/challenge", sig[:32], pk, m)
	e := curve.FromHash(curve.Secp256k1{}, eHash)

	// R' = z⋅G - e⋅P
	check := z.ActOnBase().Sub(e.Act(P)).(*curve.Secp256k1Point)
	if check.IsIdentity() {
		return false
	}
	if !check.HasEvenY() {
		return false
	}
	return bytes.Equal(check.XBytes(), sig[:32])
}
