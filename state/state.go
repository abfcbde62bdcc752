// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/udao-org/udao-ledger/cache"
	"github.com/udao-org/udao-ledger/kv"
	"github.com/udao-org/udao-ledger/stackedmap"
	"github.com/udao-org/udao-ledger/udao"
)

const cacheSize = 16384

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr udao.Address
	key  udao.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(append(make([]byte, 0, udao.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State holds the storage of all builtin contracts.
// It is not safe for concurrent use; the ledger serializes access.
type State struct {
	store kv.Store
	cache *cache.LRU[storageKey, []byte] // committed values
	sm    *stackedmap.StackedMap[storageKey, []byte]
}

// New create state object on top of store.
func New(store kv.Store) *State {
	c, _ := cache.NewLRU[storageKey, []byte](cacheSize)
	s := &State{
		store: store,
		cache: c,
	}
	s.sm = stackedmap.New(func(key storageKey) ([]byte, bool, error) {
		v, err := s.load(key)
		return v, true, err
	})
	// base level, so writes outside of any checkpoint are journaled too
	s.sm.Push()
	return s
}

func (s *State) load(key storageKey) ([]byte, error) {
	return s.cache.GetOrLoad(key, func(key storageKey) ([]byte, error) {
		metricStorageCounter().AddWithLabel(1, map[string]string{"type": "read"})
		v, err := s.store.Get(key.bytes())
		if err != nil {
			if s.store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return v, nil
	})
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr udao.Address, key udao.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr udao.Address, key udao.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr udao.Address, key udao.Bytes32) (udao.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return udao.Bytes32{}, err
	}
	if len(raw) == 0 {
		return udao.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return udao.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return udao.Blake2b(raw), nil
	}
	return udao.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr udao.Address, key, value udao.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr udao.Address, key udao.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr udao.Address, key udao.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage writes the journaled changes into p. The returned commit function must be
// called once p is durably written; it folds the changes into the committed view.
func (s *State) Stage(p kv.Putter) (commit func(), err error) {
	changes := make(map[storageKey][]byte)
	s.sm.Journal(func(key storageKey, value []byte) bool {
		changes[key] = value
		return true
	})

	for key, value := range changes {
		if len(value) == 0 {
			err = p.Delete(key.bytes())
		} else {
			err = p.Put(key.bytes(), value)
		}
		if err != nil {
			return nil, &Error{err}
		}
	}
	metricStorageCounter().AddWithLabel(int64(len(changes)), map[string]string{"type": "write"})

	return func() {
		for key, value := range changes {
			s.cache.Add(key, value)
		}
		s.sm.PopTo(0)
		s.sm.Push()
		if changed, hit, miss := s.cache.Stats(); changed && hit+miss > 0 {
			metricCacheHitRate().Set(hit * 1000 / (hit + miss))
		}
	}, nil
}
