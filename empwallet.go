// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
)

var cfg *config

func main() {
	// Work around defer not working after os.Exit.
	if err := walletMain(); err != nil {
		os.Exit(1)
	}
}

// walletMain is a work-around main function that is required since deferred
// functions (such as log flushing) are not called with calls to os.Exit.
// Instead, main runs this function and checks for a non-nil error, at which
// point any defers have already run, and if the error is non-nil, the program
// can be exited with an error exit status.
func walletMain() error {
	// Load configuration and parse the command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, command, commandArgs, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	if command == nil {
		return errors.New("no command specified")
	}

	if err := command.Execute(commandArgs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
