// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keystore generates and stores the wallet signing key.
//
// A key file seals the P-256 private scalar under a passphrase-derived
// key: scrypt stretches the passphrase and NaCl secretbox encrypts the
// scalar.  The public key travels in the clear alongside, since it is the
// account address and is needed without the passphrase.
package keystore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/BigBossBooling/empwallet/internal/zero"
	"github.com/BigBossBooling/empwallet/snacl"
)

// scalarLen is the fixed width of a serialized P-256 private scalar.
const scalarLen = 32

// keyFile is the stored JSON form of a sealed key.
type keyFile struct {
	PubKey       string `json:"public_key_hex"`
	KDFParams    string `json:"kdf_params_b64"`
	EncryptedKey string `json:"encrypted_private_key_b64"`
}

// Key is an unlocked signing key.
type Key struct {
	priv *ecdsa.PrivateKey
}

// PrivKey returns the private key for signing.  The key remains owned by
// the Key; Zero invalidates it.
func (k *Key) PrivKey() *ecdsa.PrivateKey {
	return k.priv
}

// PubKeyBytes returns the 65-byte uncompressed public key encoding.
func (k *Key) PubKeyBytes() []byte {
	return elliptic.Marshal(elliptic.P256(), k.priv.PublicKey.X,
		k.priv.PublicKey.Y)
}

// Address returns the account address, the lowercase hex of the
// uncompressed public key.
func (k *Key) Address() string {
	return hex.EncodeToString(k.PubKeyBytes())
}

// Zero clears the private scalar from memory.  The Key must not be used
// for signing afterwards.
func (k *Key) Zero() {
	zero.BigInt(k.priv.D)
}

// Generate creates a new signing key, seals it under the passphrase, and
// writes the key file to path.  Generation refuses to overwrite an
// existing key file, since doing so would discard the only copy of the
// old key.
func Generate(path string, passphrase []byte) (*Key, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, newError(ErrStorage, fmt.Sprintf("key file %s "+
			"already exists", path), nil)
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, newError(ErrCrypto, "key generation failed", err)
	}
	key := &Key{priv: priv}

	if err := key.save(path, passphrase); err != nil {
		return nil, err
	}

	log.Infof("Generated new signing key for address %s", key.Address())
	return key, nil
}

// save seals the private scalar and writes the key file.
func (k *Key) save(path string, passphrase []byte) error {
	masterKey, err := snacl.NewSecretKey(&passphrase, snacl.DefaultN,
		snacl.DefaultR, snacl.DefaultP)
	if err != nil {
		return newError(ErrCrypto, "passphrase key derivation failed", err)
	}
	defer masterKey.Zero()

	scalar := make([]byte, scalarLen)
	k.priv.D.FillBytes(scalar)
	defer zero.Bytes(scalar)

	sealed, err := masterKey.Encrypt(scalar)
	if err != nil {
		return newError(ErrCrypto, "private key sealing failed", err)
	}

	file := keyFile{
		PubKey:       k.Address(),
		KDFParams:    base64.StdEncoding.EncodeToString(masterKey.Marshal()),
		EncryptedKey: base64.StdEncoding.EncodeToString(sealed),
	}
	b, err := json.MarshalIndent(&file, "", "    ")
	if err != nil {
		return newError(ErrStorage, "key file encoding failed", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return newError(ErrStorage, fmt.Sprintf("cannot write key "+
			"file %s", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return newError(ErrStorage, fmt.Sprintf("cannot move key "+
			"file into place at %s", path), err)
	}
	return nil
}

// Load opens the key file at path and unseals the private key with the
// passphrase.  A wrong passphrase fails with an ErrDecryption-coded
// error.
func Load(path string, passphrase []byte) (*Key, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newError(ErrNotFound, fmt.Sprintf("no key "+
				"file at %s", path), err)
		}
		return nil, newError(ErrStorage, fmt.Sprintf("cannot read "+
			"key file %s", path), err)
	}

	var file keyFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, newError(ErrStorage, fmt.Sprintf("malformed key "+
			"file %s", path), err)
	}
	params, err := base64.StdEncoding.DecodeString(file.KDFParams)
	if err != nil {
		return nil, newError(ErrStorage, "malformed key derivation "+
			"parameters", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(file.EncryptedKey)
	if err != nil {
		return nil, newError(ErrStorage, "malformed sealed key", err)
	}

	// Re-derive the sealing key from the passphrase.  The stored
	// parameter block carries a digest of the original key, so a wrong
	// passphrase is caught here.
	masterKey := snacl.SecretKey{Key: &snacl.CryptoKey{}}
	if err := masterKey.Unmarshal(params); err != nil {
		return nil, newError(ErrStorage, "invalid key derivation "+
			"parameters", err)
	}
	defer masterKey.Zero()
	if err := masterKey.DeriveKey(&passphrase); err != nil {
		if err == snacl.ErrInvalidPassword {
			return nil, newError(ErrDecryption, "wrong passphrase "+
				"for key file", err)
		}
		return nil, newError(ErrCrypto, "passphrase key derivation "+
			"failed", err)
	}

	scalar, err := masterKey.Decrypt(sealed)
	if err != nil {
		return nil, newError(ErrDecryption, "sealed private key "+
			"cannot be opened", err)
	}
	defer zero.Bytes(scalar)

	key, err := keyFromScalar(scalar)
	if err != nil {
		return nil, err
	}

	// The stored public key is redundant with the unsealed scalar.
	// Disagreement means the file was assembled from mismatched parts.
	if key.Address() != file.PubKey {
		key.Zero()
		return nil, newError(ErrStorage, fmt.Sprintf("stored public "+
			"key %s does not belong to the sealed private key",
			file.PubKey), nil)
	}

	log.Debugf("Loaded signing key for address %s", key.Address())
	return key, nil
}

// ReadAddress returns the account address stored in the key file at path.
// The public key travels in the clear, so no passphrase is needed and the
// private key stays sealed.
func ReadAddress(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", newError(ErrNotFound, fmt.Sprintf("no key "+
				"file at %s", path), err)
		}
		return "", newError(ErrStorage, fmt.Sprintf("cannot read "+
			"key file %s", path), err)
	}

	var file keyFile
	if err := json.Unmarshal(b, &file); err != nil {
		return "", newError(ErrStorage, fmt.Sprintf("malformed key "+
			"file %s", path), err)
	}
	pub, err := hex.DecodeString(file.PubKey)
	if err != nil || len(pub) != 1+2*scalarLen || pub[0] != 0x04 {
		return "", newError(ErrStorage, "stored public key is not an "+
			"uncompressed point", err)
	}
	return file.PubKey, nil
}

// keyFromScalar rebuilds the private key from its serialized scalar.
func keyFromScalar(scalar []byte) (*Key, error) {
	if len(scalar) != scalarLen {
		return nil, newError(ErrStorage, fmt.Sprintf("sealed key has "+
			"%d bytes, want %d", len(scalar), scalarLen), nil)
	}

	curve := elliptic.P256()
	d := new(big.Int).SetBytes(scalar)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, newError(ErrStorage, "sealed key is not a valid "+
			"P-256 scalar", nil)
	}

	priv := &ecdsa.PrivateKey{D: d}
	priv.PublicKey.Curve = curve
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(scalar)
	return &Key{priv: priv}, nil
}
