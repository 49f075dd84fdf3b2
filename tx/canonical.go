// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
)

// The canonical form of a transaction is compact JSON with keys in
// lexicographic order.  Its SHA-256 digest is both the transaction
// identifier and the message every signature is computed over, so the
// bytes must be identical for identical logical content on every
// implementation that handles the transaction.  The structs below pin the
// exact field set per kind: encoding/json emits struct fields in
// declaration order, so the fields are declared in key order and
// marshaled without indentation.
//
// Two field groups are shared by all kinds.  Always present: Fee, From,
// Timestamp, TxType.  Present by authorization mode: PublicKey for a
// single-signer transaction once the signing key is known, and
// RequiredSignatures plus the sorted AuthorizedPublicKeys for a group
// transaction.  The mode fields are pointers and nil-able slices filled
// in by canonicalBase, so their presence tracks the mode, not a value
// comparison.

// canonicalBase carries the kind-independent canonical fields.
type canonicalBase struct {
	fee       uint64
	fromHex   string
	timestamp int64

	pubKeyHex *string  // single-signer mode, once the key is known
	m         *uint32  // group mode
	keysHex   []string // group mode, sorted
}

type standardFields struct {
	Amount               uint64   `json:"Amount"`
	AuthorizedPublicKeys []string `json:"AuthorizedPublicKeys,omitempty"`
	Fee                  uint64   `json:"Fee"`
	From                 string   `json:"From"`
	PublicKey            *string  `json:"PublicKey,omitempty"`
	RequiredSignatures   *uint32  `json:"RequiredSignatures,omitempty"`
	Timestamp            int64    `json:"Timestamp"`
	To                   string   `json:"To"`
	TxType               string   `json:"TxType"`
}

type deployFields struct {
	Amount               uint64   `json:"Amount"`
	AuthorizedPublicKeys []string `json:"AuthorizedPublicKeys,omitempty"`
	ContractCode         string   `json:"ContractCode"`
	Fee                  uint64   `json:"Fee"`
	From                 string   `json:"From"`
	PublicKey            *string  `json:"PublicKey,omitempty"`
	RequiredSignatures   *uint32  `json:"RequiredSignatures,omitempty"`
	Timestamp            int64    `json:"Timestamp"`
	TxType               string   `json:"TxType"`
}

type callFields struct {
	Amount                uint64   `json:"Amount"`
	Arguments             string   `json:"Arguments"`
	AuthorizedPublicKeys  []string `json:"AuthorizedPublicKeys,omitempty"`
	Fee                   uint64   `json:"Fee"`
	From                  string   `json:"From"`
	FunctionName          string   `json:"FunctionName"`
	PublicKey             *string  `json:"PublicKey,omitempty"`
	RequiredSignatures    *uint32  `json:"RequiredSignatures,omitempty"`
	TargetContractAddress string   `json:"TargetContractAddress"`
	Timestamp             int64    `json:"Timestamp"`
	TxType                string   `json:"TxType"`
}

func (p *StandardPayload) canonicalStruct(base *canonicalBase) interface{} {
	return &standardFields{
		Amount:               p.Amount,
		AuthorizedPublicKeys: base.keysHex,
		Fee:                  base.fee,
		From:                 base.fromHex,
		PublicKey:            base.pubKeyHex,
		RequiredSignatures:   base.m,
		Timestamp:            base.timestamp,
		To:                   hex.EncodeToString(p.To),
		TxType:               string(KindStandard),
	}
}

func (p *DeployPayload) canonicalStruct(base *canonicalBase) interface{} {
	return &deployFields{
		Amount:               p.Amount,
		AuthorizedPublicKeys: base.keysHex,
		ContractCode:         base64.StdEncoding.EncodeToString(p.Code),
		Fee:                  base.fee,
		From:                 base.fromHex,
		PublicKey:            base.pubKeyHex,
		RequiredSignatures:   base.m,
		Timestamp:            base.timestamp,
		TxType:               string(KindContractDeploy),
	}
}

func (p *CallPayload) canonicalStruct(base *canonicalBase) interface{} {
	return &callFields{
		Amount:                p.Amount,
		Arguments:             base64.StdEncoding.EncodeToString(p.Args),
		AuthorizedPublicKeys:  base.keysHex,
		Fee:                   base.fee,
		From:                  base.fromHex,
		FunctionName:          p.Function,
		PublicKey:             base.pubKeyHex,
		RequiredSignatures:    base.m,
		TargetContractAddress: hex.EncodeToString(p.Target),
		Timestamp:             base.timestamp,
		TxType:                string(KindContractCall),
	}
}

// canonicalBytes produces the deterministic byte form of the transaction's
// signable content.
func (t *Tx) canonicalBytes() ([]byte, error) {
	base := canonicalBase{
		fee:       t.fee,
		fromHex:   hex.EncodeToString(t.from),
		timestamp: t.timestamp,
	}
	switch {
	case t.group != nil:
		m := t.group.m
		base.m = &m
		base.keysHex = make([]string, len(t.group.keys))
		for i, key := range t.group.keys {
			base.keysHex[i] = hex.EncodeToString(key)
		}
	case len(t.pubKey) != 0:
		pub := hex.EncodeToString(t.pubKey)
		base.pubKeyHex = &pub
	}

	return marshalCanonical(t.payload.canonicalStruct(&base))
}

// marshalCanonical marshals one of the per-kind canonical structs to its
// compact JSON form.  encoding/json escapes HTML metacharacters inside
// strings by default, which the node does not, so escaping is disabled to
// keep the bytes identical across implementations.
func marshalCanonical(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, newError(ErrSerialization, "canonical encoding failed", err)
	}

	// Encode terminates the value with a newline that is not part of
	// the canonical form.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
