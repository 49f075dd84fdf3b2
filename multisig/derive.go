// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package multisig derives and persists M-of-N signing group
// configurations.
//
// A group is identified by the SHA-256 digest of its threshold and sorted
// authorized key set.  The identifier doubles as the sender identity of
// transactions the group authorizes, so derivation is deterministic and
// insensitive to the order keys are supplied in: the same (M, key set)
// pair always names the same group, and any change to either produces a
// different identifier.
package multisig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

const (
	// PubKeyLen is the length of an uncompressed P-256 public key
	// encoding, the only key form the derivation accepts.
	PubKeyLen = 65

	// pubKeyMarker is the leading byte of an uncompressed point.
	pubKeyMarker = 0x04

	// MaxRequiredSignatures is the largest representable threshold.
	// The derivation preimage carries the threshold in a single byte;
	// widening the field would change the identifier of every group
	// ever derived, so the cap is a fixed part of the scheme.
	MaxRequiredSignatures = 255
)

// GroupID is the derived identifier of a signing group.
type GroupID [sha256.Size]byte

// String returns the identifier as lowercase hex.
func (id GroupID) String() string {
	return hex.EncodeToString(id[:])
}

// Derive computes the identifier of the signing group formed by the
// threshold m and the given authorized public keys:
//
//	SHA-256( byte(m) || sorted authorized key bytes )
//
// The keys are sorted by byte value before hashing, so the result does
// not depend on input order.  Derive fails with an ErrValidation-coded
// error unless 1 <= m <= len(pubKeys), every key is a distinct 65-byte
// uncompressed point, and m fits the single-byte threshold field.
func Derive(m uint32, pubKeys [][]byte) (GroupID, error) {
	if len(pubKeys) == 0 {
		return GroupID{}, newError(ErrValidation, "authorized public "+
			"key list cannot be empty", nil)
	}
	if m < 1 || uint64(m) > uint64(len(pubKeys)) {
		return GroupID{}, newError(ErrValidation, fmt.Sprintf(
			"threshold must be between 1 and %d, got %d",
			len(pubKeys), m), nil)
	}
	if m > MaxRequiredSignatures {
		return GroupID{}, newError(ErrValidation, fmt.Sprintf(
			"threshold %d does not fit the single-byte threshold "+
				"field (max %d)", m, MaxRequiredSignatures), nil)
	}

	sorted := make([][]byte, len(pubKeys))
	copy(sorted, pubKeys)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	})

	for i, key := range sorted {
		if len(key) != PubKeyLen || key[0] != pubKeyMarker {
			return GroupID{}, newError(ErrValidation, fmt.Sprintf(
				"authorized key %x is not a %d-byte uncompressed "+
					"P-256 point", key, PubKeyLen), nil)
		}
		if i > 0 && bytes.Equal(sorted[i-1], key) {
			return GroupID{}, newError(ErrValidation, fmt.Sprintf(
				"duplicate authorized key %x", key), nil)
		}
	}

	hasher := sha256.New()
	hasher.Write([]byte{byte(m)})
	for _, key := range sorted {
		hasher.Write(key)
	}

	var id GroupID
	copy(id[:], hasher.Sum(nil))
	return id, nil
}

// SortKeys returns a copy of pubKeys sorted by byte value, the canonical
// order authorized key sets are stored and hashed in.
func SortKeys(pubKeys [][]byte) [][]byte {
	sorted := make([][]byte, len(pubKeys))
	for i, key := range pubKeys {
		sorted[i] = append([]byte(nil), key...)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	})
	return sorted
}
