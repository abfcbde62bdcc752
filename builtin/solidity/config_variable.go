// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/udao-org/udao-ledger/udao"
)

// ConfigVariable is a protocol parameter with a compiled-in default that gated setters
// may override. An explicitly stored zero is kept as zero, not read back as the default.
type ConfigVariable struct {
	context      *Context
	slot         udao.Bytes32
	name         string
	defaultValue *big.Int
}

func NewConfigVariable(context *Context, name string, defaultValue *big.Int) *ConfigVariable {
	return &ConfigVariable{
		context:      context,
		slot:         udao.BytesToBytes32([]byte(name)),
		name:         name,
		defaultValue: defaultValue,
	}
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Get() (*big.Int, error) {
	value := new(big.Int).Set(c.defaultValue)
	err := c.context.state.DecodeStorage(c.context.address, c.slot, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, value)
	})
	return value, err
}

func (c *ConfigVariable) GetUint64() (uint64, error) {
	v, err := c.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (c *ConfigVariable) Set(value *big.Int) error {
	return c.context.state.EncodeStorage(c.context.address, c.slot, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}
