// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
)

// PubKeyLen is the length of an uncompressed P-256 public key encoding,
// the form keys take everywhere outside process memory.
const PubKeyLen = 65

// MarshalPubKey returns the 65-byte uncompressed encoding of a P-256
// public key.
func MarshalPubKey(pub *ecdsa.PublicKey) []byte {
	return elliptic.Marshal(elliptic.P256(), pub.X, pub.Y)
}

// ParsePubKey parses the 65-byte uncompressed encoding of a P-256 point.
func ParsePubKey(b []byte) (*ecdsa.PublicKey, error) {
	x, y := elliptic.Unmarshal(elliptic.P256(), b)
	if x == nil {
		return nil, newError(ErrCrypto, fmt.Sprintf("%x is not an "+
			"uncompressed P-256 point", b), nil)
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}

// SignSingle signs a single-signer transaction, fixing its identifier.
//
// The transaction's public key and sender identifier are set from the
// signing key.  The canonical digest computed over the resulting content
// becomes the transaction identifier, and the signature is ECDSA over the
// raw digest bytes.  The digest itself is the signed message; it is not
// hashed again.
func (t *Tx) SignSingle(key *ecdsa.PrivateKey) error {
	if t.group != nil {
		return newError(ErrMode, "group transactions are signed with "+
			"AddGroupSignature", nil)
	}
	if key == nil {
		return newError(ErrValidation, "nil signing key", nil)
	}

	pub := MarshalPubKey(&key.PublicKey)
	if len(t.from) != 0 && !bytes.Equal(t.from, pub) {
		log.Warnf("Transaction sender %x does not match the signing "+
			"key; replacing with %x", t.from, pub)
	}
	t.from = pub
	t.pubKey = pub

	digest, err := t.Digest()
	if err != nil {
		return err
	}
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return newError(ErrCrypto, "transaction signing failed", err)
	}

	t.id = digest[:]
	t.signature = sig
	return nil
}

// AddGroupSignature appends one signer's contribution to a group
// transaction.
//
// The first successful signature fixes the transaction identifier; every
// later call must recompute the identical digest, so content edited
// between signing sessions is rejected.  A key that has already signed is
// accepted as a no-op, which lets a session replay its append without
// tracking whether it already ran.
func (t *Tx) AddGroupSignature(key *ecdsa.PrivateKey) error {
	if t.group == nil {
		return newError(ErrMode, "transaction does not use group "+
			"authorization", nil)
	}
	if key == nil {
		return newError(ErrValidation, "nil signing key", nil)
	}

	pub := MarshalPubKey(&key.PublicKey)
	if !t.group.authorized(pub) {
		return newError(ErrUnauthorizedSigner, fmt.Sprintf("key %x is "+
			"not in the authorized set", pub), nil)
	}
	if t.group.signedBy(pub) {
		log.Debugf("Key %x already signed transaction %v", pub, t.ID())
		return nil
	}

	digest, err := t.Digest()
	if err != nil {
		return err
	}
	if t.id != nil && !bytes.Equal(t.id, digest[:]) {
		return newError(ErrContentMismatch, fmt.Sprintf("content digest "+
			"%x does not match the fixed identifier %x", digest, t.id), nil)
	}

	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return newError(ErrCrypto, "transaction signing failed", err)
	}

	if t.id == nil {
		// First signature.
		t.id = digest[:]
	}
	t.group.insertSigner(Signer{PubKey: pub, Signature: sig})

	log.Debugf("Transaction %v has %d of %d required signatures", t.ID(),
		len(t.group.signers), t.group.m)
	return nil
}
