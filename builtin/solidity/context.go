// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"fmt"
	"math/big"

	"github.com/udao-org/udao-ledger/state"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

// EmitFunc receives the events emitted by builtin contracts.
type EmitFunc func(ev *tx.Event)

// Context binds a builtin contract to its storage and its event sink.
type Context struct {
	address udao.Address
	state   *state.State
	emit    EmitFunc
}

func NewContext(address udao.Address, state *state.State, emit EmitFunc) *Context {
	return &Context{
		address: address,
		state:   state,
		emit:    emit,
	}
}

func (c *Context) Address() udao.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Emit records an event of the bound contract. Arguments are rendered in their
// canonical text form: decimal amounts, 0x-hex addresses.
func (c *Context) Emit(name string, args ...any) {
	if c.emit == nil {
		return
	}
	ev := &tx.Event{Address: c.address, Name: name, Args: make([]string, 0, len(args))}
	for _, arg := range args {
		ev.Args = append(ev.Args, formatArg(arg))
	}
	c.emit(ev)
}

func formatArg(arg any) string {
	switch v := arg.(type) {
	case *big.Int:
		if v == nil {
			return "0"
		}
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
