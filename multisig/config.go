// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multisig

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// Config is a signing group definition: the threshold, the authorized key
// set in canonical sorted order, the derived identifier, and the key
// count.  Configs are shared between the independent signer sessions of a
// group, so the stored form carries the derived identifier redundantly
// and Load re-derives it to catch silent edits.
type Config struct {
	M       uint32
	PubKeys [][]byte // sorted by byte value
	GroupID GroupID
	N       int
}

// configFile is the stored JSON form.  The field names are shared with
// existing config files and cannot change.
type configFile struct {
	M       uint32   `json:"m_required"`
	PubKeys []string `json:"authorized_public_keys_hex"`
	GroupID string   `json:"multisig_address_hex"`
	N       int      `json:"n_total_keys"`
}

// NewConfig derives the group identifier for (m, pubKeys) and returns the
// complete config.  The key set is stored in canonical sorted order
// regardless of input order.
func NewConfig(m uint32, pubKeys [][]byte) (*Config, error) {
	id, err := Derive(m, pubKeys)
	if err != nil {
		return nil, err
	}

	sorted := SortKeys(pubKeys)
	return &Config{
		M:       m,
		PubKeys: sorted,
		GroupID: id,
		N:       len(sorted),
	}, nil
}

// Save writes the config to path.  The file is written to a temporary
// name and moved into place so a concurrent reader never observes a
// partial config.
func (c *Config) Save(path string) error {
	file := configFile{
		M:       c.M,
		PubKeys: make([]string, len(c.PubKeys)),
		GroupID: c.GroupID.String(),
		N:       c.N,
	}
	for i, key := range c.PubKeys {
		file.PubKeys[i] = hex.EncodeToString(key)
	}

	b, err := json.MarshalIndent(&file, "", "    ")
	if err != nil {
		return newError(ErrConfigStorage, "config encoding failed", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return newError(ErrConfigStorage, fmt.Sprintf("cannot write "+
			"group config %s", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return newError(ErrConfigStorage, fmt.Sprintf("cannot move "+
			"group config into place at %s", path), err)
	}

	log.Debugf("Saved %d-of-%d group config (id %s) to %s", c.M, c.N,
		c.GroupID, path)
	return nil
}

// Load reads a group config from path and re-derives its identifier from
// the stored threshold and key set.  A stored identifier that disagrees
// with re-derivation fails with an ErrConfigCorrupted-coded error: the
// key list or threshold was changed after the config was written.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ErrConfigStorage, fmt.Sprintf("cannot "+
			"read group config %s", path), err)
	}

	var file configFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, newError(ErrConfigStorage, fmt.Sprintf("malformed "+
			"group config %s", path), err)
	}

	if file.M < 1 || int(file.M) > file.N {
		return nil, newError(ErrValidation, fmt.Sprintf("config "+
			"threshold %d cannot hold for %d keys", file.M, file.N), nil)
	}
	if len(file.PubKeys) != file.N {
		return nil, newError(ErrValidation, fmt.Sprintf("config key "+
			"count %d does not match stored total %d",
			len(file.PubKeys), file.N), nil)
	}

	keys := make([][]byte, len(file.PubKeys))
	for i, keyHex := range file.PubKeys {
		keys[i], err = hex.DecodeString(keyHex)
		if err != nil {
			return nil, newError(ErrConfigStorage, fmt.Sprintf(
				"authorized key %q is not valid hex", keyHex), err)
		}
	}

	id, err := Derive(file.M, keys)
	if err != nil {
		return nil, err
	}
	if id.String() != file.GroupID {
		return nil, newError(ErrConfigCorrupted, fmt.Sprintf(
			"stored group identifier %s does not match re-derived "+
				"%s; the key list or threshold was modified",
			file.GroupID, id), nil)
	}

	return &Config{
		M:       file.M,
		PubKeys: SortKeys(keys),
		GroupID: id,
		N:       file.N,
	}, nil
}
