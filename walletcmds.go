// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/BigBossBooling/empwallet/did"
	"github.com/BigBossBooling/empwallet/internal/cfgutil"
	"github.com/BigBossBooling/empwallet/internal/prompt"
	"github.com/BigBossBooling/empwallet/internal/zero"
	"github.com/BigBossBooling/empwallet/keystore"
	"github.com/BigBossBooling/empwallet/multisig"
	"github.com/BigBossBooling/empwallet/tx"
	flags "github.com/jessevdk/go-flags"
)

// generateCommand creates a new wallet key file.
type generateCommand struct{}

func (c *generateCommand) Execute(args []string) error {
	// Refuse to clobber an existing key file before prompting for a
	// passphrase.
	exists, err := cfgutil.FileExists(cfg.Wallet)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("wallet key file %s already exists", cfg.Wallet)
	}

	pass, err := prompt.PrivatePass(bufio.NewReader(os.Stdin))
	if err != nil {
		return err
	}
	defer zero.Bytes(pass)

	key, err := keystore.Generate(cfg.Wallet, pass)
	if err != nil {
		return err
	}
	defer key.Zero()

	identifier, err := did.FromPubKey(key.PubKeyBytes())
	if err != nil {
		return err
	}

	fmt.Printf("New wallet key saved to %s\n", cfg.Wallet)
	fmt.Printf("Address: %s\n", key.Address())
	fmt.Printf("DID:     %s\n", identifier)
	return nil
}

// addressCommand prints the address of the configured wallet key file.
type addressCommand struct {
	DID bool `long:"did" description:"Also print the did:key identifier of the wallet public key"`
}

func (c *addressCommand) Execute(args []string) error {
	addr, err := keystore.ReadAddress(cfg.Wallet)
	if err != nil {
		return err
	}
	fmt.Printf("Address: %s\n", addr)

	if c.DID {
		pub, err := hex.DecodeString(addr)
		if err != nil {
			return err
		}
		identifier, err := did.FromPubKey(pub)
		if err != nil {
			return err
		}
		fmt.Printf("DID:     %s\n", identifier)
	}
	return nil
}

// sendCommand builds, signs, and delivers a standard transfer.
type sendCommand struct {
	To     string `long:"to" required:"true" description:"Hex-encoded recipient address"`
	Amount uint64 `long:"amount" required:"true" description:"Amount to transfer"`
	Fee    uint64 `long:"fee" description:"Transaction fee"`
	Out    string `long:"out" description:"Write the signed transaction record to this file instead of submitting it"`
}

func (c *sendCommand) Execute(args []string) error {
	to, err := decodeAddress("recipient address", c.To)
	if err != nil {
		return err
	}
	warnUnusualAddress(to)

	key, err := openWallet()
	if err != nil {
		return err
	}
	defer key.Zero()

	txn, err := tx.New(key.PubKeyBytes(),
		&tx.StandardPayload{To: to, Amount: c.Amount}, c.Fee)
	if err != nil {
		return err
	}
	if err := txn.SignSingle(key.PrivKey()); err != nil {
		return err
	}
	return deliver(txn, c.Out)
}

// deployCommand builds, signs, and delivers a contract deployment.
type deployCommand struct {
	Code   string `long:"code" required:"true" description:"File containing the contract code"`
	Amount uint64 `long:"amount" description:"Amount to endow the new contract with"`
	Fee    uint64 `long:"fee" description:"Transaction fee"`
	Out    string `long:"out" description:"Write the signed transaction record to this file instead of submitting it"`
}

func (c *deployCommand) Execute(args []string) error {
	code, err := os.ReadFile(c.Code)
	if err != nil {
		return fmt.Errorf("cannot read contract code: %v", err)
	}

	key, err := openWallet()
	if err != nil {
		return err
	}
	defer key.Zero()

	txn, err := tx.New(key.PubKeyBytes(),
		&tx.DeployPayload{Code: code, Amount: c.Amount}, c.Fee)
	if err != nil {
		return err
	}
	if err := txn.SignSingle(key.PrivKey()); err != nil {
		return err
	}
	return deliver(txn, c.Out)
}

// callCommand builds, signs, and delivers a contract call.
type callCommand struct {
	Target   string `long:"target" required:"true" description:"Hex-encoded contract address"`
	Function string `long:"function" required:"true" description:"Contract function to invoke"`
	Args     string `long:"args" description:"File containing the encoded call arguments"`
	Amount   uint64 `long:"amount" description:"Amount to send along with the call"`
	Fee      uint64 `long:"fee" description:"Transaction fee"`
	Out      string `long:"out" description:"Write the signed transaction record to this file instead of submitting it"`
}

func (c *callCommand) Execute(args []string) error {
	target, err := decodeAddress("contract address", c.Target)
	if err != nil {
		return err
	}
	var callArgs []byte
	if c.Args != "" {
		callArgs, err = os.ReadFile(c.Args)
		if err != nil {
			return fmt.Errorf("cannot read call arguments: %v", err)
		}
	}

	key, err := openWallet()
	if err != nil {
		return err
	}
	defer key.Zero()

	txn, err := tx.New(key.PubKeyBytes(), &tx.CallPayload{
		Target:   target,
		Function: c.Function,
		Args:     callArgs,
		Amount:   c.Amount,
	}, c.Fee)
	if err != nil {
		return err
	}
	if err := txn.SignSingle(key.PrivKey()); err != nil {
		return err
	}
	return deliver(txn, c.Out)
}

// msigCommand groups the multisignature subcommands.
type msigCommand struct{}

// msigCreateCommand derives a signing group from its authorized keys and
// writes the group configuration file.
type msigCreateCommand struct {
	Threshold uint32 `short:"m" long:"threshold" required:"true" description:"Number of signatures required to authorize the group's transactions"`
	Out       string `short:"o" long:"out" required:"true" description:"Write the group configuration to this file"`
}

func (c *msigCreateCommand) Execute(args []string) error {
	if len(args) == 0 {
		return errors.New("no authorized public keys given")
	}
	pubKeys := make([][]byte, 0, len(args))
	for _, s := range args {
		pk, err := hex.DecodeString(s)
		if err != nil {
			return fmt.Errorf("invalid public key %q: %v", s, err)
		}
		pubKeys = append(pubKeys, pk)
	}

	groupCfg, err := multisig.NewConfig(c.Threshold, pubKeys)
	if err != nil {
		return err
	}
	if err := groupCfg.Save(c.Out); err != nil {
		return err
	}

	fmt.Printf("Multi-sig configuration saved to %s\n", c.Out)
	fmt.Printf("  Required signatures: %d of %d\n", groupCfg.M, groupCfg.N)
	fmt.Printf("  Group address:       %s\n", groupCfg.GroupID)
	return nil
}

// msigInitCommand constructs an unsigned group transaction record.
type msigInitCommand struct {
	Config string `long:"config" required:"true" description:"Group configuration file"`
	To     string `long:"to" required:"true" description:"Hex-encoded recipient address"`
	Amount uint64 `long:"amount" required:"true" description:"Amount to transfer"`
	Fee    uint64 `long:"fee" description:"Transaction fee"`
	Out    string `long:"out" required:"true" description:"Write the unsigned transaction record to this file"`
}

func (c *msigInitCommand) Execute(args []string) error {
	groupCfg, err := multisig.Load(c.Config)
	if err != nil {
		return err
	}
	to, err := decodeAddress("recipient address", c.To)
	if err != nil {
		return err
	}
	warnUnusualAddress(to)

	txn, err := tx.NewGroup(groupCfg.M, groupCfg.PubKeys,
		&tx.StandardPayload{To: to, Amount: c.Amount}, c.Fee)
	if err != nil {
		return err
	}
	if err := txn.SaveRecord(c.Out); err != nil {
		return err
	}

	fmt.Printf("Unsigned %d-of-%d transaction written to %s\n",
		groupCfg.M, groupCfg.N, c.Out)
	fmt.Printf("Collect signatures with: %s msig sign --config %s --pending %s\n",
		os.Args[0], c.Config, c.Out)
	return nil
}

// msigSignCommand appends this wallet's signature to a pending group
// transaction record.
type msigSignCommand struct {
	Config  string `long:"config" required:"true" description:"Group configuration file"`
	Pending string `long:"pending" required:"true" description:"Pending transaction record file"`
}

func (c *msigSignCommand) Execute(args []string) error {
	groupCfg, err := multisig.Load(c.Config)
	if err != nil {
		return err
	}
	txn, err := tx.LoadRecord(c.Pending)
	if err != nil {
		return err
	}

	// A record initiated for some other group must not be signed against
	// this configuration.
	if !bytes.Equal(txn.From(), groupCfg.GroupID[:]) {
		return fmt.Errorf("pending transaction does not belong to "+
			"group %s", groupCfg.GroupID)
	}

	key, err := openWallet()
	if err != nil {
		return err
	}
	defer key.Zero()

	before := txn.SignerCount()
	if err := txn.AddGroupSignature(key.PrivKey()); err != nil {
		return err
	}
	if txn.SignerCount() == before {
		fmt.Println("This wallet already signed the transaction")
	}
	if err := txn.SaveRecord(c.Pending); err != nil {
		return err
	}

	fmt.Printf("Transaction: %s\n", txn.ID())
	printSignerTally(txn)
	return nil
}

// msigStatusCommand reports signature collection progress for a pending
// group transaction record.
type msigStatusCommand struct {
	Pending string `long:"pending" required:"true" description:"Pending transaction record file"`
}

func (c *msigStatusCommand) Execute(args []string) error {
	txn, err := tx.LoadRecord(c.Pending)
	if err != nil {
		return err
	}
	digest, err := txn.Digest()
	if err != nil {
		return err
	}
	ok, reason := txn.VerifySignatures()

	fmt.Printf("Transaction: %x\n", digest)
	printSignerTally(txn)
	for _, signer := range txn.Signers() {
		fmt.Printf("  signed by %x\n", signer.PubKey)
	}
	if ok {
		fmt.Println("Status:      authorized, ready to submit")
	} else {
		fmt.Printf("Status:      not yet authorized (%v)\n", reason)
	}
	return nil
}

// msigSubmitCommand verifies a pending group transaction record and
// submits it to the configured node.
type msigSubmitCommand struct {
	Pending string `long:"pending" required:"true" description:"Pending transaction record file"`
}

func (c *msigSubmitCommand) Execute(args []string) error {
	txn, err := tx.LoadRecord(c.Pending)
	if err != nil {
		return err
	}
	if ok, reason := txn.VerifySignatures(); !ok {
		return fmt.Errorf("refusing to submit: %v", reason)
	}
	return deliver(txn, "")
}

// printSignerTally reports collected signature progress for a group
// transaction.
func printSignerTally(txn *tx.Tx) {
	m := int(txn.RequiredSignatures())
	n := txn.SignerCount()
	fmt.Printf("Signatures:  %d of %d required %s collected\n",
		n, m, pickNoun(m, "signature", "signatures"))
}

// addCommands attaches every wallet subcommand to the parser.
func addCommands(parser *flags.Parser) error {
	_, err := parser.AddCommand("generate",
		"Create a new wallet key file",
		"Generate creates a fresh signing key, seals it under a prompted "+
			"passphrase, and writes it to the configured wallet key file.",
		&generateCommand{})
	if err != nil {
		return err
	}
	_, err = parser.AddCommand("address",
		"Show the wallet address",
		"Address prints the account address of the configured wallet key "+
			"file without unlocking it.",
		&addressCommand{})
	if err != nil {
		return err
	}
	_, err = parser.AddCommand("send",
		"Send a standard transfer",
		"Send builds a standard transfer, signs it with the wallet key, "+
			"and submits it to the configured node.",
		&sendCommand{})
	if err != nil {
		return err
	}
	_, err = parser.AddCommand("deploy",
		"Deploy a contract",
		"Deploy builds a contract deployment transaction from a code "+
			"file, signs it, and submits it to the configured node.",
		&deployCommand{})
	if err != nil {
		return err
	}
	_, err = parser.AddCommand("call",
		"Call a contract function",
		"Call builds a contract invocation transaction, signs it, and "+
			"submits it to the configured node.",
		&callCommand{})
	if err != nil {
		return err
	}

	msig, err := parser.AddCommand("msig",
		"Multisignature group commands",
		"Msig manages M-of-N signing groups: group configurations are "+
			"derived once and shared, and pending transaction records "+
			"are passed between signers until enough signatures are "+
			"collected to submit.",
		&msigCommand{})
	if err != nil {
		return err
	}
	_, err = msig.AddCommand("create",
		"Derive and save a group configuration",
		"Create derives the group identifier from the threshold and the "+
			"authorized public keys (given as hex arguments) and writes "+
			"the group configuration file.",
		&msigCreateCommand{})
	if err != nil {
		return err
	}
	_, err = msig.AddCommand("init",
		"Initiate an unsigned group transaction",
		"Init constructs an unsigned transfer from the group address "+
			"and writes its pending record, ready for signature "+
			"collection.",
		&msigInitCommand{})
	if err != nil {
		return err
	}
	_, err = msig.AddCommand("sign",
		"Add this wallet's signature to a pending transaction",
		"Sign loads a pending group transaction record, appends this "+
			"wallet's signature, and writes the record back.",
		&msigSignCommand{})
	if err != nil {
		return err
	}
	_, err = msig.AddCommand("status",
		"Show signature collection progress",
		"Status reports the collected signers of a pending group "+
			"transaction record and whether it is fully authorized.",
		&msigStatusCommand{})
	if err != nil {
		return err
	}
	_, err = msig.AddCommand("submit",
		"Submit a fully signed group transaction",
		"Submit verifies that a pending group transaction record "+
			"carries enough valid signatures and sends it to the "+
			"configured node.",
		&msigSubmitCommand{})
	return err
}
