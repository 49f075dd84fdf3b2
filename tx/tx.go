// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tx implements authoring and authorization of Empower1 ledger
// transactions.
//
// A transaction's identity is the SHA-256 digest of its canonical form, and
// that same digest is the message every signature is computed over.  A
// transaction is authorized either by a single signer paying from their own
// key, or by an M-of-N group paying from an identifier derived from the
// authorized key set.  Group signing is a multi-session protocol: each
// signer loads the shared pending record, appends one signature, and
// persists the result, with the identifier fixed by the first signature and
// reproduced by every later one.
package tx

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/BigBossBooling/empwallet/multisig"
)

// Signer is one collected contribution toward a group threshold.
type Signer struct {
	PubKey    []byte
	Signature []byte
}

// groupAuth is the M-of-N extension of a group-mode transaction.
type groupAuth struct {
	m    uint32
	keys [][]byte // sorted by byte value, deduplicated

	// signers are always kept sorted by public key byte value.  The
	// order is an invariant, not a display choice: it makes the merged
	// signer set identical no matter which order independent sessions
	// appended in.
	signers []Signer
}

// authorized returns whether pub is a member of the authorized key set.
func (g *groupAuth) authorized(pub []byte) bool {
	for _, key := range g.keys {
		if bytes.Equal(key, pub) {
			return true
		}
	}
	return false
}

// signedBy returns whether pub has already contributed a signature.
func (g *groupAuth) signedBy(pub []byte) bool {
	for _, s := range g.signers {
		if bytes.Equal(s.PubKey, pub) {
			return true
		}
	}
	return false
}

// insertSigner adds s at the position that maintains the signers order
// invariant.
func (g *groupAuth) insertSigner(s Signer) {
	i := sort.Search(len(g.signers), func(i int) bool {
		return bytes.Compare(g.signers[i].PubKey, s.PubKey) >= 0
	})
	g.signers = append(g.signers, Signer{})
	copy(g.signers[i+1:], g.signers[i:])
	g.signers[i] = s
}

// Tx is a ledger transaction being authored and authorized locally.
//
// A transaction is in exactly one authorization mode for its lifetime,
// chosen by the constructor: New builds a single-signer transaction and
// NewGroup builds an M-of-N group transaction.  The identifier is unset
// until a signature fixes it and never changes afterward.
type Tx struct {
	id        []byte // canonical digest, nil until fixed by a signature
	timestamp int64
	fee       uint64
	from      []byte
	payload   Payload

	// Single-signer mode.
	pubKey    []byte
	signature []byte

	// Group mode.  nil for single-signer transactions.
	group *groupAuth
}

// New returns an unsigned single-signer transaction paying from the given
// sender.  The sender may be left nil; signing sets it from the signing
// key in any case.
func New(from []byte, payload Payload, fee uint64) (*Tx, error) {
	if payload == nil {
		return nil, newError(ErrValidation, "transaction requires a payload", nil)
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}

	return &Tx{
		timestamp: time.Now().UnixNano(),
		fee:       fee,
		from:      append([]byte(nil), from...),
		payload:   payload,
	}, nil
}

// NewGroup returns an unsigned group transaction requiring m of the given
// authorized keys to sign.  The sender identifier is derived from the
// group parameters, so the same (m, key set) pair always pays from the
// same identifier regardless of key order.
func NewGroup(m uint32, authorizedKeys [][]byte, payload Payload, fee uint64) (*Tx, error) {
	if payload == nil {
		return nil, newError(ErrValidation, "transaction requires a payload", nil)
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}

	groupID, err := multisig.Derive(m, authorizedKeys)
	if err != nil {
		return nil, newError(ErrValidation, "invalid group parameters", err)
	}

	keys := make([][]byte, len(authorizedKeys))
	for i, key := range authorizedKeys {
		keys[i] = append([]byte(nil), key...)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})

	return &Tx{
		timestamp: time.Now().UnixNano(),
		fee:       fee,
		from:      groupID[:],
		payload:   payload,
		group: &groupAuth{
			m:    m,
			keys: keys,
		},
	}, nil
}

// Digest returns the SHA-256 digest of the transaction's canonical form,
// computed from the current field values.
func (t *Tx) Digest() ([sha256.Size]byte, error) {
	b, err := t.canonicalBytes()
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(b), nil
}

// ID returns the fixed transaction identifier as lowercase hex, or the
// empty string when no signature has fixed it yet.
func (t *Tx) ID() string {
	if t.id == nil {
		return ""
	}
	return hex.EncodeToString(t.id)
}

// Timestamp returns the creation time in nanoseconds since the Unix epoch.
func (t *Tx) Timestamp() int64 {
	return t.timestamp
}

// Fee returns the transaction fee.
func (t *Tx) Fee() uint64 {
	return t.fee
}

// From returns the sender identifier: the signer's public key in
// single-signer mode, the derived group identifier in group mode.
func (t *Tx) From() []byte {
	return append([]byte(nil), t.from...)
}

// Kind returns the transaction kind.
func (t *Tx) Kind() Kind {
	return t.payload.Kind()
}

// Payload returns the kind-specific payload.
func (t *Tx) Payload() Payload {
	return t.payload
}

// IsGroup returns whether the transaction uses group authorization.
func (t *Tx) IsGroup() bool {
	return t.group != nil
}

// PubKey returns the single-signer public key, nil before signing or in
// group mode.
func (t *Tx) PubKey() []byte {
	return append([]byte(nil), t.pubKey...)
}

// Signature returns the single-signer signature, nil before signing or in
// group mode.
func (t *Tx) Signature() []byte {
	return append([]byte(nil), t.signature...)
}

// RequiredSignatures returns the group threshold M, or 0 for a
// single-signer transaction.
func (t *Tx) RequiredSignatures() uint32 {
	if t.group == nil {
		return 0
	}
	return t.group.m
}

// AuthorizedKeys returns the sorted authorized key set of a group
// transaction, nil for a single-signer transaction.
func (t *Tx) AuthorizedKeys() [][]byte {
	if t.group == nil {
		return nil
	}
	keys := make([][]byte, len(t.group.keys))
	for i, key := range t.group.keys {
		keys[i] = append([]byte(nil), key...)
	}
	return keys
}

// Signers returns the collected group signatures, sorted by public key.
// It returns nil for a single-signer transaction.
func (t *Tx) Signers() []Signer {
	if t.group == nil {
		return nil
	}
	signers := make([]Signer, len(t.group.signers))
	for i, s := range t.group.signers {
		signers[i] = Signer{
			PubKey:    append([]byte(nil), s.PubKey...),
			Signature: append([]byte(nil), s.Signature...),
		}
	}
	return signers
}

// SignerCount returns the number of collected group signatures.
func (t *Tx) SignerCount() int {
	if t.group == nil {
		return 0
	}
	return len(t.group.signers)
}
