// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/BigBossBooling/empwallet/chain"
	"github.com/BigBossBooling/empwallet/internal/prompt"
	"github.com/BigBossBooling/empwallet/internal/zero"
	"github.com/BigBossBooling/empwallet/keystore"
	"github.com/BigBossBooling/empwallet/tx"
	"github.com/davecgh/go-spew/spew"
)

// openWallet prompts for the wallet passphrase and unlocks the configured
// key file.  The caller must Zero the returned key when finished with it.
func openWallet() (*keystore.Key, error) {
	pass, err := prompt.ProvidePrivPassphrase()
	if err != nil {
		return nil, err
	}
	defer zero.Bytes(pass)

	return keystore.Load(cfg.Wallet, pass)
}

// decodeAddress decodes a hex-encoded address, naming the field in any
// error.
func decodeAddress(name, s string) ([]byte, error) {
	addr, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %v", name, s, err)
	}
	if len(addr) == 0 {
		return nil, fmt.Errorf("empty %s", name)
	}
	return addr, nil
}

// warnUnusualAddress warns when a recipient address is not an uncompressed
// public key.  Account addresses are public keys on this chain, so anything
// else is likely a paste error, but it is still accepted since contract
// addresses take other forms.
func warnUnusualAddress(addr []byte) {
	if len(addr) != 65 || addr[0] != 0x04 {
		log.Warnf("Recipient address is not an uncompressed public key")
	}
}

// deliver hands a signed transaction off: written to out as a pending
// record when a path is given, submitted to the configured node otherwise.
func deliver(txn *tx.Tx, out string) error {
	log.Debugf("Transaction %s record: %v", txn.ID(),
		newLogClosure(func() string {
			return spew.Sdump(txn.Record())
		}))

	if out != "" {
		if err := txn.SaveRecord(out); err != nil {
			return err
		}
		fmt.Printf("Transaction %s written to %s\n", txn.ID(), out)
		return nil
	}

	client := chain.NewClient(cfg.Node)
	ack, err := client.SubmitTransaction(context.Background(), txn)
	if err != nil {
		return err
	}
	fmt.Printf("Transaction %s accepted by %s\n", txn.ID(), cfg.Node)
	if ack != "" {
		fmt.Printf("Node response: %s\n", ack)
	}
	return nil
}
