// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"crypto/ecdsa"
	"fmt"
)

// VerifySignatures checks the transaction's signatures against a digest
// recomputed from its current content.  The stored identifier is
// deliberately not trusted; recomputing is what catches content changed
// after signing.
//
// For a single-signer transaction the verdict is true iff a public key and
// signature are present and the signature verifies.  For a group
// transaction the verdict is true iff at least M distinct authorized keys
// have valid signatures, with any unauthorized, duplicate, or invalid
// entry failing the whole verification.  A false verdict always carries a
// diagnostic error.
func (t *Tx) VerifySignatures() (bool, error) {
	digest, err := t.Digest()
	if err != nil {
		return false, err
	}

	if t.group == nil {
		if len(t.pubKey) == 0 || len(t.signature) == 0 {
			return false, fmt.Errorf("transaction is not signed")
		}
		pub, err := ParsePubKey(t.pubKey)
		if err != nil {
			return false, err
		}
		if !ecdsa.VerifyASN1(pub, digest[:], t.signature) {
			return false, fmt.Errorf("signature does not verify "+
				"against digest %x", digest)
		}
		return true, nil
	}

	g := t.group
	if uint32(len(g.signers)) < g.m {
		return false, fmt.Errorf("insufficient signatures: have %d, "+
			"need %d", len(g.signers), g.m)
	}

	seen := make(map[string]struct{}, len(g.signers))
	var valid uint32
	for _, s := range g.signers {
		if !g.authorized(s.PubKey) {
			return false, fmt.Errorf("signer %x is not authorized",
				s.PubKey)
		}
		if _, ok := seen[string(s.PubKey)]; ok {
			return false, fmt.Errorf("signer %x appears more than "+
				"once", s.PubKey)
		}
		seen[string(s.PubKey)] = struct{}{}

		pub, err := ParsePubKey(s.PubKey)
		if err != nil {
			return false, err
		}
		if !ecdsa.VerifyASN1(pub, digest[:], s.Signature) {
			return false, fmt.Errorf("signature from %x does not "+
				"verify against digest %x", s.PubKey, digest)
		}
		valid++
	}

	if valid < g.m {
		return false, fmt.Errorf("insufficient valid signatures: have "+
			"%d, need %d", valid, g.m)
	}
	return true, nil
}
