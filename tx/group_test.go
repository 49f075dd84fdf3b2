// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx_test

import (
	"bytes"
	"crypto/ecdsa"
	"path/filepath"
	"testing"

	"github.com/BigBossBooling/empwallet/multisig"
	"github.com/BigBossBooling/empwallet/tx"
)

// tstGroupKeys generates n signing keys and returns them along with
// their public encodings.
func tstGroupKeys(t *testing.T, n int) ([]*ecdsa.PrivateKey, [][]byte) {
	t.Helper()
	keys := make([]*ecdsa.PrivateKey, n)
	pubs := make([][]byte, n)
	for i := range keys {
		keys[i] = tx.TstNewKey(t)
		pubs[i] = tx.MarshalPubKey(&keys[i].PublicKey)
	}
	return keys, pubs
}

// TestGroupSigningRoundTrip walks a 2-of-3 group payment through two
// signing sessions with the pending record persisted between them,
// checking the verdict before and after the threshold is met.
func TestGroupSigningRoundTrip(t *testing.T) {
	keys, pubs := tstGroupKeys(t, 3)

	txn, err := tx.NewGroup(2, pubs, &tx.StandardPayload{
		To:     []byte{0x01, 0x02},
		Amount: 500,
	}, 5)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}

	// The sender is the derived group identifier, not any single key.
	groupID, err := multisig.Derive(2, pubs)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if !bytes.Equal(txn.From(), groupID[:]) {
		t.Fatalf("sender %x is not the group identifier %s",
			txn.From(), groupID)
	}

	// First session: one signature fixes the identifier but does not
	// meet the threshold.
	if err := txn.AddGroupSignature(keys[0]); err != nil {
		t.Fatalf("first AddGroupSignature failed: %v", err)
	}
	if txn.SignerCount() != 1 {
		t.Fatalf("wrong signer count: got %d, want 1", txn.SignerCount())
	}
	firstID := txn.ID()
	if firstID == "" {
		t.Fatal("first signature did not fix the identifier")
	}

	ok, err := txn.VerifySignatures()
	if ok {
		t.Fatal("below-threshold transaction verified")
	}
	if err == nil {
		t.Fatal("invalid verdict came without a diagnostic")
	}

	// Hand off to the second session through the pending record, the
	// way independent signers actually share a transaction.
	path := filepath.Join(t.TempDir(), "pending_tx.json")
	if err := txn.SaveRecord(path); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	loaded, err := tx.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if loaded.ID() != firstID {
		t.Fatalf("identifier changed across persistence: got %s, want %s",
			loaded.ID(), firstID)
	}

	if err := loaded.AddGroupSignature(keys[1]); err != nil {
		t.Fatalf("second AddGroupSignature failed: %v", err)
	}
	if loaded.SignerCount() != 2 {
		t.Fatalf("wrong signer count: got %d, want 2", loaded.SignerCount())
	}
	if loaded.ID() != firstID {
		t.Fatalf("second signature changed the identifier: got %s, want %s",
			loaded.ID(), firstID)
	}

	ok, err = loaded.VerifySignatures()
	if err != nil {
		t.Fatalf("VerifySignatures failed: %v", err)
	}
	if !ok {
		t.Fatal("threshold-meeting transaction does not verify")
	}
}

// TestGroupUnauthorizedSigner checks that a key outside the authorized
// set cannot contribute.
func TestGroupUnauthorizedSigner(t *testing.T) {
	_, pubs := tstGroupKeys(t, 2)
	outsider := tx.TstNewKey(t)

	txn, err := tx.NewGroup(2, pubs, &tx.StandardPayload{
		To:     []byte{0x01},
		Amount: 1,
	}, 0)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}

	err = txn.AddGroupSignature(outsider)
	if err == nil {
		t.Fatal("an unauthorized key signed the transaction")
	}
	tx.TstCheckError(t, "outsider signature", err, tx.ErrUnauthorizedSigner)
	if txn.SignerCount() != 0 {
		t.Errorf("rejected signature was stored: %d signers",
			txn.SignerCount())
	}
}

// TestGroupRepeatSigner checks that the same key signing twice is a
// no-op rather than an error or a duplicate entry.
func TestGroupRepeatSigner(t *testing.T) {
	keys, pubs := tstGroupKeys(t, 2)

	txn, err := tx.NewGroup(2, pubs, &tx.StandardPayload{
		To:     []byte{0x01},
		Amount: 1,
	}, 0)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}

	if err := txn.AddGroupSignature(keys[0]); err != nil {
		t.Fatalf("AddGroupSignature failed: %v", err)
	}
	id := txn.ID()
	sigBefore := txn.Signers()[0].Signature

	if err := txn.AddGroupSignature(keys[0]); err != nil {
		t.Fatalf("repeat AddGroupSignature failed: %v", err)
	}
	if txn.SignerCount() != 1 {
		t.Errorf("repeat signature was stored: %d signers", txn.SignerCount())
	}
	if txn.ID() != id {
		t.Errorf("repeat signature changed the identifier")
	}
	if !bytes.Equal(txn.Signers()[0].Signature, sigBefore) {
		t.Errorf("repeat signature replaced the stored signature")
	}
}

// TestGroupSignerOrder checks that collected signatures end up sorted by
// public key no matter the order the keys signed in, so independently
// built records converge on the same signer list.
func TestGroupSignerOrder(t *testing.T) {
	keys, pubs := tstGroupKeys(t, 3)

	txn, err := tx.NewGroup(3, pubs, &tx.StandardPayload{
		To:     []byte{0x01},
		Amount: 1,
	}, 0)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}

	// Sign in reverse of the canonical key order.
	sorted := multisig.SortKeys(pubs)
	for i := len(sorted) - 1; i >= 0; i-- {
		for j, pub := range pubs {
			if bytes.Equal(pub, sorted[i]) {
				if err := txn.AddGroupSignature(keys[j]); err != nil {
					t.Fatalf("AddGroupSignature failed: %v", err)
				}
			}
		}
	}

	signers := txn.Signers()
	if len(signers) != 3 {
		t.Fatalf("wrong signer count: got %d, want 3", len(signers))
	}
	for i := range signers {
		if !bytes.Equal(signers[i].PubKey, sorted[i]) {
			t.Errorf("signer #%d is %x, want %x", i,
				signers[i].PubKey[:4], sorted[i][:4])
		}
	}
}

// TestGroupDigestStability checks that the digest stays fixed while
// signatures accumulate.
func TestGroupDigestStability(t *testing.T) {
	keys, pubs := tstGroupKeys(t, 3)

	txn, err := tx.NewGroup(2, pubs, &tx.StandardPayload{
		To:     []byte{0x01},
		Amount: 500,
	}, 5)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}

	before, err := txn.Digest()
	if err != nil {
		t.Fatalf("Digest failed: %v", err)
	}
	for _, key := range keys {
		if err := txn.AddGroupSignature(key); err != nil {
			t.Fatalf("AddGroupSignature failed: %v", err)
		}
		after, err := txn.Digest()
		if err != nil {
			t.Fatalf("Digest failed: %v", err)
		}
		if after != before {
			t.Fatal("digest changed as signatures were added")
		}
	}
}

// TestGroupInvalidParameters checks that group constructor failures
// surface as validation errors with the derivation detail preserved.
func TestGroupInvalidParameters(t *testing.T) {
	_, pubs := tstGroupKeys(t, 2)

	_, err := tx.NewGroup(3, pubs, &tx.StandardPayload{
		To:     []byte{0x01},
		Amount: 1,
	}, 0)
	if err == nil {
		t.Fatal("NewGroup accepted a threshold above the key count")
	}
	tx.TstCheckError(t, "threshold above key count", err, tx.ErrValidation)
	if !multisig.IsError(err, multisig.ErrValidation) {
		t.Errorf("derivation detail was not preserved in %v", err)
	}
}
