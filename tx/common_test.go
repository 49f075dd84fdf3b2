// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"
	"testing"

	"github.com/btcsuite/btclog"
)

func init() {
	// Enable logging (Debug level) to aid debugging failing tests.
	logger := btclog.NewBackend(os.Stdout).Logger("TEST")
	logger.SetLevel(btclog.LevelDebug)
	UseLogger(logger)
}

// TstCheckError ensures the passed error is a tx.Error with an error
// code that matches the passed error code.
func TstCheckError(t *testing.T, testName string, gotErr error, wantErrCode ErrorCode) {
	t.Helper()
	txErr, ok := gotErr.(Error)
	if !ok {
		t.Errorf("%s: unexpected error type - got %T (%s), want %T",
			testName, gotErr, gotErr, Error{})
		return
	}
	if txErr.ErrorCode != wantErrCode {
		t.Errorf("%s: unexpected error code - got %s (%s), want %s",
			testName, txErr.ErrorCode, txErr, wantErrCode)
	}
}

// TstNewKey generates a fresh signing key.
func TstNewKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("cannot generate signing key: %v", err)
	}
	return key
}
