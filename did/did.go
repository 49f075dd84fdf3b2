// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package did renders wallet public keys as did:key decentralized
// identifiers.
//
// The encoding follows the did:key method for P-256: the uncompressed
// public key is prefixed with the varint form of the p256-pub multicodec
// (0x1201) and the result is multibase base58btc encoded, marked by a
// leading 'z'.
package did

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	// prefix is the did:key method prefix including the base58btc
	// multibase marker.
	prefix = "did:key:z"

	// pubKeyLen is the uncompressed P-256 public key length.
	pubKeyLen = 65
)

// multicodecP256 is the varint encoding of the p256-pub multicodec code
// 0x1201.
var multicodecP256 = []byte{0x81, 0x24}

// FromPubKey renders a 65-byte uncompressed P-256 public key as a
// did:key identifier.
func FromPubKey(pub []byte) (string, error) {
	if len(pub) != pubKeyLen || pub[0] != 0x04 {
		return "", fmt.Errorf("public key must be a %d-byte "+
			"uncompressed point, got %d bytes", pubKeyLen, len(pub))
	}

	payload := make([]byte, 0, len(multicodecP256)+pubKeyLen)
	payload = append(payload, multicodecP256...)
	payload = append(payload, pub...)
	return prefix + base58.Encode(payload), nil
}

// ToPubKey recovers the uncompressed public key from a did:key
// identifier produced by FromPubKey.
func ToPubKey(did string) ([]byte, error) {
	if !strings.HasPrefix(did, prefix) {
		return nil, fmt.Errorf("%q is not a base58btc did:key "+
			"identifier", did)
	}

	payload := base58.Decode(strings.TrimPrefix(did, prefix))
	if len(payload) == 0 {
		return nil, fmt.Errorf("identifier payload is not valid base58")
	}
	if !bytes.HasPrefix(payload, multicodecP256) {
		return nil, fmt.Errorf("identifier does not carry the "+
			"p256-pub multicodec prefix %x", multicodecP256)
	}

	pub := payload[len(multicodecP256):]
	if len(pub) != pubKeyLen || pub[0] != 0x04 {
		return nil, fmt.Errorf("identifier payload is not a %d-byte "+
			"uncompressed point", pubKeyLen)
	}
	return pub, nil
}
