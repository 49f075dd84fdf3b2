// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Record is the persisted pending-transaction form shared between signer
// sessions.  The field names and encodings are a compatibility surface:
// existing records must keep loading, so keys, addresses, and signatures
// are lowercase hex while contract code and call arguments are standard
// base64.
type Record struct {
	ID                 string         `json:"id_hex,omitempty"`
	Timestamp          int64          `json:"timestamp"`
	From               string         `json:"from_address_hex"`
	PubKey             string         `json:"public_key_hex,omitempty"`
	Signature          string         `json:"signature_hex,omitempty"`
	TxType             string         `json:"tx_type"`
	To                 string         `json:"to_address_hex,omitempty"`
	Amount             uint64         `json:"amount"`
	Fee                uint64         `json:"fee"`
	ContractCode       string         `json:"contract_code_bytes_b64,omitempty"`
	Target             string         `json:"target_contract_address_hex,omitempty"`
	Function           string         `json:"function_name,omitempty"`
	Arguments          string         `json:"arguments_bytes_b64,omitempty"`
	RequiredSignatures uint32         `json:"required_signatures"`
	AuthorizedKeys     []string       `json:"authorized_public_keys_hex,omitempty"`
	Signers            []SignerRecord `json:"signers"`
}

// SignerRecord is one collected signature in a Record.
type SignerRecord struct {
	PubKey    string `json:"publicKeyHex"`
	Signature string `json:"signatureHex"`
}

// Record builds the persisted form of the transaction.
func (t *Tx) Record() *Record {
	rec := &Record{
		ID:        t.ID(),
		Timestamp: t.timestamp,
		From:      hex.EncodeToString(t.from),
		TxType:    string(t.payload.Kind()),
		Fee:       t.fee,
		Signers:   []SignerRecord{},
	}

	switch p := t.payload.(type) {
	case *StandardPayload:
		rec.To = hex.EncodeToString(p.To)
		rec.Amount = p.Amount
	case *DeployPayload:
		rec.ContractCode = base64.StdEncoding.EncodeToString(p.Code)
		rec.Amount = p.Amount
	case *CallPayload:
		rec.Target = hex.EncodeToString(p.Target)
		rec.Function = p.Function
		if len(p.Args) != 0 {
			rec.Arguments = base64.StdEncoding.EncodeToString(p.Args)
		}
		rec.Amount = p.Amount
	}

	if t.group != nil {
		rec.RequiredSignatures = t.group.m
		rec.AuthorizedKeys = make([]string, len(t.group.keys))
		for i, key := range t.group.keys {
			rec.AuthorizedKeys[i] = hex.EncodeToString(key)
		}
		for _, s := range t.group.signers {
			rec.Signers = append(rec.Signers, SignerRecord{
				PubKey:    hex.EncodeToString(s.PubKey),
				Signature: hex.EncodeToString(s.Signature),
			})
		}
	} else {
		rec.PubKey = hex.EncodeToString(t.pubKey)
		rec.Signature = hex.EncodeToString(t.signature)
	}

	return rec
}

// Tx rebuilds a transaction from its persisted form.  Structural problems
// fail here; content tampering is not detected until the digest is next
// recomputed, by AddGroupSignature or VerifySignatures.
func (r *Record) Tx() (*Tx, error) {
	kind := Kind(r.TxType)
	if !kind.Valid() {
		return nil, newError(ErrValidation, fmt.Sprintf("unknown "+
			"transaction kind %q", r.TxType), nil)
	}

	var payload Payload
	switch kind {
	case KindStandard:
		to, err := decodeHexField("to_address_hex", r.To)
		if err != nil {
			return nil, err
		}
		payload = &StandardPayload{To: to, Amount: r.Amount}
	case KindContractDeploy:
		code, err := decodeB64Field("contract_code_bytes_b64", r.ContractCode)
		if err != nil {
			return nil, err
		}
		payload = &DeployPayload{Code: code, Amount: r.Amount}
	case KindContractCall:
		target, err := decodeHexField("target_contract_address_hex", r.Target)
		if err != nil {
			return nil, err
		}
		args, err := decodeB64Field("arguments_bytes_b64", r.Arguments)
		if err != nil {
			return nil, err
		}
		payload = &CallPayload{
			Target:   target,
			Function: r.Function,
			Args:     args,
			Amount:   r.Amount,
		}
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}

	from, err := decodeHexField("from_address_hex", r.From)
	if err != nil {
		return nil, err
	}

	t := &Tx{
		timestamp: r.Timestamp,
		fee:       r.Fee,
		from:      from,
		payload:   payload,
	}
	if r.ID != "" {
		if t.id, err = decodeHexField("id_hex", r.ID); err != nil {
			return nil, err
		}
	}

	if r.RequiredSignatures > 0 {
		keys := make([][]byte, len(r.AuthorizedKeys))
		for i, keyHex := range r.AuthorizedKeys {
			if keys[i], err = decodeHexField("authorized_public_keys_hex", keyHex); err != nil {
				return nil, err
			}
		}
		if len(keys) == 0 {
			return nil, newError(ErrValidation, "group record has no "+
				"authorized keys", nil)
		}
		sort.Slice(keys, func(i, j int) bool {
			return bytes.Compare(keys[i], keys[j]) < 0
		})

		t.group = &groupAuth{m: r.RequiredSignatures, keys: keys}
		for _, s := range r.Signers {
			signer := Signer{}
			if signer.PubKey, err = decodeHexField("publicKeyHex", s.PubKey); err != nil {
				return nil, err
			}
			if signer.Signature, err = decodeHexField("signatureHex", s.Signature); err != nil {
				return nil, err
			}
			t.group.insertSigner(signer)
		}
	} else {
		if t.pubKey, err = decodeHexField("public_key_hex", r.PubKey); err != nil {
			return nil, err
		}
		if t.signature, err = decodeHexField("signature_hex", r.Signature); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// SaveRecord writes the transaction's persisted form to path.  The record
// is written to a temporary file first and moved into place, so a reader
// never observes a partially written record.
func (t *Tx) SaveRecord(path string) error {
	b, err := json.MarshalIndent(t.Record(), "", "    ")
	if err != nil {
		return newError(ErrSerialization, "pending record encoding "+
			"failed", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return newError(ErrRecord, fmt.Sprintf("cannot write pending "+
			"record %s", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return newError(ErrRecord, fmt.Sprintf("cannot move pending "+
			"record into place at %s", path), err)
	}

	log.Debugf("Wrote pending transaction record %s", path)
	return nil
}

// LoadRecord reads a transaction from its persisted form at path.
func LoadRecord(path string) (*Tx, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ErrRecord, fmt.Sprintf("cannot read "+
			"pending record %s", path), err)
	}

	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, newError(ErrSerialization, fmt.Sprintf("malformed "+
			"pending record %s", path), err)
	}
	return rec.Tx()
}

func decodeHexField(name, value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, newError(ErrSerialization, fmt.Sprintf("field %s "+
			"is not valid hex", name), err)
	}
	return b, nil
}

func decodeB64Field(name, value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, newError(ErrSerialization, fmt.Sprintf("field %s "+
			"is not valid base64", name), err)
	}
	return b, nil
}
