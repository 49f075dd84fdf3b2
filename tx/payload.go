// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

// Kind identifies a transaction kind.  The string value is the tag included
// in the canonical form and in the node wire encoding.
type Kind string

// Transaction kinds.
const (
	KindStandard       Kind = "standard"
	KindContractDeploy Kind = "contract_deployment"
	KindContractCall   Kind = "contract_call"
)

// Valid returns whether k is a known transaction kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStandard, KindContractDeploy, KindContractCall:
		return true
	}
	return false
}

// Payload is the kind-specific portion of a transaction.  Exactly three
// types implement it, one per kind, and each owns the complete canonical
// field set of its kind.  Whether a canonical field is included is decided
// by the kind and the authorization mode, never by whether a value happens
// to be empty.
type Payload interface {
	// Kind returns the kind tag of the payload.
	Kind() Kind

	// validate checks that the fields the kind requires are set.
	validate() error

	// canonicalStruct builds the kind's complete canonical field set
	// from the payload and the kind-independent base fields.
	canonicalStruct(base *canonicalBase) interface{}
}

// StandardPayload transfers value to a recipient account.
type StandardPayload struct {
	To     []byte
	Amount uint64
}

// Kind returns KindStandard.
func (p *StandardPayload) Kind() Kind { return KindStandard }

func (p *StandardPayload) validate() error {
	if len(p.To) == 0 {
		return newError(ErrValidation, "standard transaction requires a recipient", nil)
	}
	return nil
}

// DeployPayload installs contract code on the ledger.
type DeployPayload struct {
	Code   []byte
	Amount uint64
}

// Kind returns KindContractDeploy.
func (p *DeployPayload) Kind() Kind { return KindContractDeploy }

func (p *DeployPayload) validate() error {
	if len(p.Code) == 0 {
		return newError(ErrValidation, "contract deployment requires code", nil)
	}
	return nil
}

// CallPayload invokes a function on a deployed contract.
type CallPayload struct {
	Target   []byte
	Function string
	Args     []byte
	Amount   uint64
}

// Kind returns KindContractCall.
func (p *CallPayload) Kind() Kind { return KindContractCall }

func (p *CallPayload) validate() error {
	if len(p.Target) == 0 {
		return newError(ErrValidation, "contract call requires a target contract address", nil)
	}
	if p.Function == "" {
		return newError(ErrValidation, "contract call requires a function name", nil)
	}
	return nil
}
