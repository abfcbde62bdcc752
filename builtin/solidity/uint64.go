// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"

	"github.com/udao-org/udao-ledger/udao"
)

// Uint64 is a storage slot holding a counter or a timestamp.
type Uint64 struct {
	context *Context
	pos     udao.Bytes32
}

func NewUint64(context *Context, slot udao.Bytes32) *Uint64 {
	return &Uint64{context: context, pos: slot}
}

func (u *Uint64) Get() (uint64, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(storage[24:]), nil
}

func (u *Uint64) Set(value uint64) {
	var storage udao.Bytes32
	binary.BigEndian.PutUint64(storage[24:], value)
	u.context.state.SetStorage(u.context.address, u.pos, storage)
}

// Next returns the current value and stores its successor, like a Solidity counter.
func (u *Uint64) Next() (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	u.Set(v + 1)
	return v, nil
}
