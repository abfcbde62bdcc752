// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/kv"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

// Nonce returns the number of calls accepted from caller, which is the nonce of its
// next call.
func (l *Ledger) Nonce(caller udao.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nonce(caller)
}

func (l *Ledger) nonce(caller udao.Address) (uint64, error) {
	data, err := nonceBucket.NewStore(l.store).Get(caller.Bytes())
	if err != nil {
		if l.store.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "load nonce")
	}
	return binary.BigEndian.Uint64(data), nil
}

// Submit verifies and executes a signed call. The nonce is consumed whether the call
// commits or reverts.
func (l *Ledger) Submit(call *tx.Call) (*tx.Receipt, any, error) {
	origin, err := call.Origin()
	if err != nil {
		return nil, nil, errors.WithMessage(ErrInvalidSignature, err.Error())
	}
	method, ok := builtin.LookupMethod(call.Method)
	if !ok {
		return nil, nil, errors.WithMessage(ErrUnknownMethod, call.Method)
	}
	run, err := method.Bind(call.Args)
	if err != nil {
		return nil, nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := call.ID()
	if _, err := indexBucket.NewStore(l.store).Get(id.Bytes()); err == nil {
		return nil, nil, ErrKnownCall
	}
	nonce, err := l.nonce(origin)
	if err != nil {
		return nil, nil, err
	}
	if call.Nonce != nonce {
		return nil, nil, errors.WithMessagef(ErrBadNonce, "want %d, got %d", nonce, call.Nonce)
	}
	return l.execute(id, origin, call.Method, run, func(b kv.Batch) error {
		var next [8]byte
		binary.BigEndian.PutUint64(next[:], nonce+1)
		return nonceBucket.NewBatch(b).Put(origin.Bytes(), next[:])
	})
}
