// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multisig

import (
	"testing"
)

// TstCheckError ensures the passed error is a multisig.Error with an
// error code that matches the passed error code.
func TstCheckError(t *testing.T, testName string, gotErr error, wantErrCode ErrorCode) {
	t.Helper()
	msErr, ok := gotErr.(Error)
	if !ok {
		t.Errorf("%s: unexpected error type - got %T (%s), want %T",
			testName, gotErr, gotErr, Error{})
		return
	}
	if msErr.ErrorCode != wantErrCode {
		t.Errorf("%s: unexpected error code - got %s (%s), want %s",
			testName, msErr.ErrorCode, msErr, wantErrCode)
	}
}

// TstPubKey returns a well-formed uncompressed public key encoding whose
// coordinate bytes are all fill.  Distinct fill values give distinct
// keys with a deterministic byte order, which derivation tests rely on.
func TstPubKey(fill byte) []byte {
	key := make([]byte, PubKeyLen)
	key[0] = pubKeyMarker
	for i := 1; i < PubKeyLen; i++ {
		key[i] = fill
	}
	return key
}
