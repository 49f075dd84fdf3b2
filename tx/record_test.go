// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BigBossBooling/empwallet/tx"
)

// TestRecordRoundTrip persists and reloads one transaction of each kind
// and checks the content and digest survive unchanged.
func TestRecordRoundTrip(t *testing.T) {
	key := tx.TstNewKey(t)

	payloads := []struct {
		name    string
		payload tx.Payload
	}{
		{"standard", &tx.StandardPayload{To: []byte{0x01, 0x02}, Amount: 500}},
		{"deployment", &tx.DeployPayload{Code: []byte("contract code"), Amount: 3}},
		{"call", &tx.CallPayload{
			Target:   []byte{0x03, 0x04},
			Function: "transfer",
			Args:     []byte{0x05, 0x06},
			Amount:   7,
		}},
		{"call without arguments", &tx.CallPayload{
			Target:   []byte{0x03},
			Function: "ping",
		}},
	}

	for _, test := range payloads {
		txn, err := tx.New(nil, test.payload, 5)
		if err != nil {
			t.Fatalf("%s: New failed: %v", test.name, err)
		}
		if err := txn.SignSingle(key); err != nil {
			t.Fatalf("%s: SignSingle failed: %v", test.name, err)
		}

		path := filepath.Join(t.TempDir(), "pending_tx.json")
		if err := txn.SaveRecord(path); err != nil {
			t.Fatalf("%s: SaveRecord failed: %v", test.name, err)
		}
		if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
			t.Errorf("%s: temporary record file left behind", test.name)
		}

		loaded, err := tx.LoadRecord(path)
		if err != nil {
			t.Fatalf("%s: LoadRecord failed: %v", test.name, err)
		}

		if loaded.ID() != txn.ID() {
			t.Errorf("%s: identifier changed: got %s, want %s",
				test.name, loaded.ID(), txn.ID())
		}
		if loaded.Timestamp() != txn.Timestamp() {
			t.Errorf("%s: timestamp changed", test.name)
		}
		if loaded.Fee() != txn.Fee() {
			t.Errorf("%s: fee changed", test.name)
		}
		if loaded.Kind() != txn.Kind() {
			t.Errorf("%s: kind changed", test.name)
		}
		if !bytes.Equal(loaded.From(), txn.From()) {
			t.Errorf("%s: sender changed", test.name)
		}

		wantDigest, err := txn.Digest()
		if err != nil {
			t.Fatalf("%s: Digest failed: %v", test.name, err)
		}
		gotDigest, err := loaded.Digest()
		if err != nil {
			t.Fatalf("%s: Digest after load failed: %v", test.name, err)
		}
		if gotDigest != wantDigest {
			t.Errorf("%s: digest changed across persistence", test.name)
		}

		ok, err := loaded.VerifySignatures()
		if err != nil {
			t.Fatalf("%s: VerifySignatures failed: %v", test.name, err)
		}
		if !ok {
			t.Errorf("%s: reloaded transaction does not verify", test.name)
		}
	}
}

// TestRecordGroupRoundTrip checks the group fields survive persistence,
// including a partially collected signer list.
func TestRecordGroupRoundTrip(t *testing.T) {
	keys, pubs := tstGroupKeys(t, 3)

	txn, err := tx.NewGroup(2, pubs, &tx.StandardPayload{
		To:     []byte{0x01},
		Amount: 500,
	}, 5)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}
	if err := txn.AddGroupSignature(keys[2]); err != nil {
		t.Fatalf("AddGroupSignature failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "pending_tx.json")
	if err := txn.SaveRecord(path); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	loaded, err := tx.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}

	if !loaded.IsGroup() {
		t.Fatal("group transaction loaded as single-signer")
	}
	if loaded.RequiredSignatures() != 2 {
		t.Errorf("wrong threshold: got %d, want 2",
			loaded.RequiredSignatures())
	}
	wantKeys := txn.AuthorizedKeys()
	gotKeys := loaded.AuthorizedKeys()
	if len(gotKeys) != len(wantKeys) {
		t.Fatalf("wrong key count: got %d, want %d",
			len(gotKeys), len(wantKeys))
	}
	for i := range wantKeys {
		if !bytes.Equal(gotKeys[i], wantKeys[i]) {
			t.Errorf("authorized key #%d changed", i)
		}
	}
	if loaded.SignerCount() != 1 {
		t.Fatalf("wrong signer count: got %d, want 1", loaded.SignerCount())
	}
	if !bytes.Equal(loaded.Signers()[0].PubKey, pubs[2]) {
		t.Errorf("wrong signer: got %x", loaded.Signers()[0].PubKey[:4])
	}
}

// TestRecordFieldNames pins the stored field names.  Existing pending
// records have to keep loading, so a failure here means an accidental
// compatibility break.
func TestRecordFieldNames(t *testing.T) {
	keys, pubs := tstGroupKeys(t, 2)

	txn, err := tx.NewGroup(2, pubs, &tx.StandardPayload{
		To:     []byte{0x01},
		Amount: 500,
	}, 5)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}
	if err := txn.AddGroupSignature(keys[0]); err != nil {
		t.Fatalf("AddGroupSignature failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "pending_tx.json")
	if err := txn.SaveRecord(path); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading record failed: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("record is not a JSON object: %v", err)
	}

	for _, name := range []string{
		"id_hex", "timestamp", "from_address_hex", "tx_type",
		"to_address_hex", "amount", "fee", "required_signatures",
		"authorized_public_keys_hex", "signers",
	} {
		if _, ok := fields[name]; !ok {
			t.Errorf("field %q missing from stored record", name)
		}
	}

	signers, ok := fields["signers"].([]interface{})
	if !ok || len(signers) != 1 {
		t.Fatalf("wrong signers field shape: %v", fields["signers"])
	}
	signer, ok := signers[0].(map[string]interface{})
	if !ok {
		t.Fatalf("wrong signer entry shape: %v", signers[0])
	}
	for _, name := range []string{"publicKeyHex", "signatureHex"} {
		if _, ok := signer[name]; !ok {
			t.Errorf("field %q missing from signer entry", name)
		}
	}
}

// TestRecordTamperDetection edits the persisted amount between two
// signing sessions and checks both the append and the verdict notice.
func TestRecordTamperDetection(t *testing.T) {
	keys, pubs := tstGroupKeys(t, 3)

	txn, err := tx.NewGroup(2, pubs, &tx.StandardPayload{
		To:     []byte{0x01},
		Amount: 500,
	}, 5)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}
	if err := txn.AddGroupSignature(keys[0]); err != nil {
		t.Fatalf("AddGroupSignature failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "pending_tx.json")
	if err := txn.SaveRecord(path); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	// Raise the amount behind the first signer's back.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading record failed: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("decoding record failed: %v", err)
	}
	fields["amount"] = 900
	edited, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("encoding edited record failed: %v", err)
	}
	if err := os.WriteFile(path, edited, 0600); err != nil {
		t.Fatalf("writing edited record failed: %v", err)
	}

	loaded, err := tx.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}

	err = loaded.AddGroupSignature(keys[1])
	if err == nil {
		t.Fatal("a signature was added over tampered content")
	}
	tx.TstCheckError(t, "tampered append", err, tx.ErrContentMismatch)

	ok, _ := loaded.VerifySignatures()
	if ok {
		t.Fatal("tampered transaction verified")
	}
}

// TestLoadRecordErrors exercises the structural failure paths.
func TestLoadRecordErrors(t *testing.T) {
	dir := t.TempDir()

	write := func(t *testing.T, name, contents string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	_, err := tx.LoadRecord(filepath.Join(dir, "does_not_exist.json"))
	if err == nil {
		t.Fatal("LoadRecord of a missing file succeeded")
	}
	tx.TstCheckError(t, "missing file", err, tx.ErrRecord)

	tests := []struct {
		name     string
		contents string
		code     tx.ErrorCode
	}{
		{
			name:     "malformed json",
			contents: "{",
			code:     tx.ErrSerialization,
		},
		{
			name: "unknown kind",
			contents: `{"timestamp": 1, "from_address_hex": "01",` +
				` "tx_type": "wire_transfer", "amount": 1, "fee": 0}`,
			code: tx.ErrValidation,
		},
		{
			name: "missing recipient",
			contents: `{"timestamp": 1, "from_address_hex": "01",` +
				` "tx_type": "standard", "amount": 1, "fee": 0}`,
			code: tx.ErrValidation,
		},
		{
			name: "bad recipient hex",
			contents: `{"timestamp": 1, "from_address_hex": "01",` +
				` "tx_type": "standard", "to_address_hex": "zz",` +
				` "amount": 1, "fee": 0}`,
			code: tx.ErrSerialization,
		},
		{
			name: "bad contract code base64",
			contents: `{"timestamp": 1, "from_address_hex": "01",` +
				` "tx_type": "contract_deployment",` +
				` "contract_code_bytes_b64": "!!!", "amount": 0, "fee": 0}`,
			code: tx.ErrSerialization,
		},
	}

	for _, test := range tests {
		path := write(t, test.name+".json", test.contents)
		_, err := tx.LoadRecord(path)
		if err == nil {
			t.Errorf("%s: expected error, got none", test.name)
			continue
		}
		tx.TstCheckError(t, test.name, err, test.code)
	}
}
