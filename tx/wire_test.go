// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/BigBossBooling/empwallet/tx"
)

// TestMarshalWireSingle checks the submission form of a signed
// single-signer payment: the field names the node expects, uniform
// base64 for every binary field, and no group fields.
func TestMarshalWireSingle(t *testing.T) {
	key := tx.TstNewKey(t)

	txn, err := tx.New(nil, &tx.StandardPayload{
		To:     []byte{0x01, 0x02},
		Amount: 500,
	}, 5)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := txn.SignSingle(key); err != nil {
		t.Fatalf("SignSingle failed: %v", err)
	}

	body, err := txn.MarshalWire()
	if err != nil {
		t.Fatalf("MarshalWire failed: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("submission body is not a JSON object: %v", err)
	}

	for _, name := range []string{
		"ID", "Timestamp", "From", "PublicKey", "Signature", "TxType",
		"To", "Amount", "Fee",
	} {
		if _, ok := fields[name]; !ok {
			t.Errorf("field %q missing from submission body", name)
		}
	}
	for _, name := range []string{
		"requiredSignatures", "authorizedPublicKeys", "signers",
	} {
		if _, ok := fields[name]; ok {
			t.Errorf("group field %q present on a single-signer "+
				"submission", name)
		}
	}

	// Binary fields use standard base64.
	fromB64, ok := fields["From"].(string)
	if !ok {
		t.Fatalf("From is not a string: %v", fields["From"])
	}
	from, err := base64.StdEncoding.DecodeString(fromB64)
	if err != nil {
		t.Fatalf("From is not standard base64: %v", err)
	}
	if !bytes.Equal(from, txn.From()) {
		t.Errorf("From decodes to %x, want %x", from, txn.From())
	}

	if fields["TxType"] != "standard" {
		t.Errorf("wrong TxType: %v", fields["TxType"])
	}
	if fields["Amount"] != float64(500) {
		t.Errorf("wrong Amount: %v", fields["Amount"])
	}
}

// TestMarshalWireGroup checks the group extension of the submission
// form.
func TestMarshalWireGroup(t *testing.T) {
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
	if err := txn.AddGroupSignature(keys[1]); err != nil {
		t.Fatalf("AddGroupSignature failed: %v", err)
	}

	body, err := txn.MarshalWire()
	if err != nil {
		t.Fatalf("MarshalWire failed: %v", err)
	}

	var rec struct {
		RequiredSignatures   uint32   `json:"requiredSignatures"`
		AuthorizedPublicKeys [][]byte `json:"authorizedPublicKeys"`
		Signers              []struct {
			PublicKey []byte `json:"publicKey"`
			Signature []byte `json:"signature"`
		} `json:"signers"`
		PublicKey []byte `json:"PublicKey"`
		Signature []byte `json:"Signature"`
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatalf("decoding submission body failed: %v", err)
	}

	if rec.RequiredSignatures != 2 {
		t.Errorf("wrong threshold: got %d, want 2", rec.RequiredSignatures)
	}
	wantKeys := txn.AuthorizedKeys()
	if len(rec.AuthorizedPublicKeys) != len(wantKeys) {
		t.Fatalf("wrong authorized key count: got %d, want %d",
			len(rec.AuthorizedPublicKeys), len(wantKeys))
	}
	for i := range wantKeys {
		if !bytes.Equal(rec.AuthorizedPublicKeys[i], wantKeys[i]) {
			t.Errorf("authorized key #%d does not round trip", i)
		}
	}
	if len(rec.Signers) != 2 {
		t.Fatalf("wrong signer count: got %d, want 2", len(rec.Signers))
	}
	for i, s := range txn.Signers() {
		if !bytes.Equal(rec.Signers[i].PublicKey, s.PubKey) {
			t.Errorf("signer #%d public key does not round trip", i)
		}
		if !bytes.Equal(rec.Signers[i].Signature, s.Signature) {
			t.Errorf("signer #%d signature does not round trip", i)
		}
	}
	if len(rec.PublicKey) != 0 || len(rec.Signature) != 0 {
		t.Error("single-signer fields present on a group submission")
	}
}

// TestMarshalWireCall checks the contract call fields.
func TestMarshalWireCall(t *testing.T) {
	key := tx.TstNewKey(t)

	txn, err := tx.New(nil, &tx.CallPayload{
		Target:   []byte{0x0a, 0x0b},
		Function: "transfer",
		Args:     []byte{0x01},
		Amount:   3,
	}, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := txn.SignSingle(key); err != nil {
		t.Fatalf("SignSingle failed: %v", err)
	}

	body, err := txn.MarshalWire()
	if err != nil {
		t.Fatalf("MarshalWire failed: %v", err)
	}

	var rec struct {
		TxType                string `json:"TxType"`
		TargetContractAddress []byte `json:"TargetContractAddress"`
		FunctionName          string `json:"FunctionName"`
		Arguments             []byte `json:"Arguments"`
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatalf("decoding submission body failed: %v", err)
	}
	if rec.TxType != "contract_call" {
		t.Errorf("wrong TxType: %s", rec.TxType)
	}
	if !bytes.Equal(rec.TargetContractAddress, []byte{0x0a, 0x0b}) {
		t.Errorf("wrong target: %x", rec.TargetContractAddress)
	}
	if rec.FunctionName != "transfer" {
		t.Errorf("wrong function name: %s", rec.FunctionName)
	}
	if !bytes.Equal(rec.Arguments, []byte{0x01}) {
		t.Errorf("wrong arguments: %x", rec.Arguments)
	}
}
