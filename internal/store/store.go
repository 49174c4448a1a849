// Package store persists chain-tracking state to a pebble-backed durable
// key-value store: the LIB and every tracked block above it, keyed so a
// restart can rebuild the in-memory chain tracker.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/telosnetwork/telos-evm-translator-go/internal/chain"
)

const libKey = "lib"

// Store wraps a pebble database opened with default options; every write
// goes through the final processor.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) the pebble database at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func blockKey(number uint32) []byte {
	return []byte(fmt.Sprintf("blocks:%020d", number))
}

// PutLib persists the current LIB.
func (s *Store) PutLib(b chain.TrackedBlock) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.db.Set([]byte(libKey), raw, pebble.Sync)
}

// PutBlock persists one tracked block.
func (s *Store) PutBlock(b chain.TrackedBlock) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.db.Set(blockKey(b.Number), raw, pebble.Sync)
}

// GetBlock loads one tracked block, (zero, false, nil) if absent.
func (s *Store) GetBlock(number uint32) (chain.TrackedBlock, bool, error) {
	raw, closer, err := s.db.Get(blockKey(number))
	if err == pebble.ErrNotFound {
		return chain.TrackedBlock{}, false, nil
	}
	if err != nil {
		return chain.TrackedBlock{}, false, err
	}
	defer closer.Close()

	var b chain.TrackedBlock
	if err := json.Unmarshal(raw, &b); err != nil {
		return chain.TrackedBlock{}, false, fmt.Errorf("store: decode block %d: %w", number, err)
	}
	return b, true, nil
}

// DeleteFrom removes every tracked block with number >= from, used when a
// fork is detected and the tentative chain above it must be discarded.
func (s *Store) DeleteFrom(from uint32) error {
	return s.db.DeleteRange(blockKey(from), blockKey(^uint32(0)), pebble.Sync)
}

// GetChain rebuilds the in-memory Chain from persisted state. Returns
// (nil, nil) if no LIB has ever been persisted.
func (s *Store) GetChain() (*chain.Chain, error) {
	raw, closer, err := s.db.Get([]byte(libKey))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read lib: %w", err)
	}
	var lib chain.TrackedBlock
	unmarshalErr := json.Unmarshal(raw, &lib)
	closer.Close()
	if unmarshalErr != nil {
		return nil, fmt.Errorf("store: decode lib: %w", unmarshalErr)
	}

	c := chain.New()
	if _, err := c.SetLib(lib); err != nil {
		return nil, err
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: blockKey(lib.Number)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) < 6 || string(key[:6]) != "blocks" {
			break
		}
		var b chain.TrackedBlock
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, fmt.Errorf("store: decode tracked block: %w", err)
		}
		if _, err := c.Add(b); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Wipe removes every key. The --clean CLI flag does not call it: it
// removes the whole data directory instead.
func (s *Store) Wipe() error {
	return s.db.DeleteRange([]byte{0x00}, []byte{0xff}, pebble.Sync)
}
