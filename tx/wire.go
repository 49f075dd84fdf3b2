// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import "encoding/json"

// WireRecord is the on-the-wire submission form consumed by the node's
// /tx/submit endpoint.  Binary fields are []byte so encoding/json applies
// standard base64 to every one of them: a single encoding for the whole
// boundary, fixed by construction rather than by code-path discipline.
type WireRecord struct {
	ID        []byte `json:"ID"`
	Timestamp int64  `json:"Timestamp"`
	From      []byte `json:"From"`
	PublicKey []byte `json:"PublicKey,omitempty"`
	Signature []byte `json:"Signature,omitempty"`
	TxType    string `json:"TxType"`
	To        []byte `json:"To,omitempty"`
	Amount    uint64 `json:"Amount"`
	Fee       uint64 `json:"Fee"`

	ContractCode          []byte `json:"ContractCode,omitempty"`
	TargetContractAddress []byte `json:"TargetContractAddress,omitempty"`
	FunctionName          string `json:"FunctionName,omitempty"`
	Arguments             []byte `json:"Arguments,omitempty"`

	RequiredSignatures   uint32       `json:"requiredSignatures,omitempty"`
	AuthorizedPublicKeys [][]byte     `json:"authorizedPublicKeys,omitempty"`
	Signers              []WireSigner `json:"signers,omitempty"`
}

// WireSigner is one collected signature in a WireRecord.
type WireSigner struct {
	PublicKey []byte `json:"publicKey"`
	Signature []byte `json:"signature"`
}

// WireRecord builds the node submission form of the transaction.
func (t *Tx) WireRecord() *WireRecord {
	rec := &WireRecord{
		ID:        append([]byte(nil), t.id...),
		Timestamp: t.timestamp,
		From:      append([]byte(nil), t.from...),
		TxType:    string(t.payload.Kind()),
		Fee:       t.fee,
	}

	switch p := t.payload.(type) {
	case *StandardPayload:
		rec.To = append([]byte(nil), p.To...)
		rec.Amount = p.Amount
	case *DeployPayload:
		rec.ContractCode = append([]byte(nil), p.Code...)
		rec.Amount = p.Amount
	case *CallPayload:
		rec.TargetContractAddress = append([]byte(nil), p.Target...)
		rec.FunctionName = p.Function
		rec.Arguments = append([]byte(nil), p.Args...)
		rec.Amount = p.Amount
	}

	if t.group != nil {
		rec.RequiredSignatures = t.group.m
		rec.AuthorizedPublicKeys = make([][]byte, len(t.group.keys))
		for i, key := range t.group.keys {
			rec.AuthorizedPublicKeys[i] = append([]byte(nil), key...)
		}
		rec.Signers = make([]WireSigner, len(t.group.signers))
		for i, s := range t.group.signers {
			rec.Signers[i] = WireSigner{
				PublicKey: append([]byte(nil), s.PubKey...),
				Signature: append([]byte(nil), s.Signature...),
			}
		}
	} else {
		rec.PublicKey = append([]byte(nil), t.pubKey...)
		rec.Signature = append([]byte(nil), t.signature...)
	}

	return rec
}

// MarshalWire returns the JSON submission body for the node.
func (t *Tx) MarshalWire() ([]byte, error) {
	b, err := json.Marshal(t.WireRecord())
	if err != nil {
		return nil, newError(ErrSerialization, "wire encoding failed", err)
	}
	return b, nil
}
