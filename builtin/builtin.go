// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the protocol contracts to a state.
package builtin

import (
	"github.com/udao-org/udao-ledger/builtin/content"
	"github.com/udao-org/udao-ledger/builtin/oracle"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/builtin/staker"
	"github.com/udao-org/udao-ledger/builtin/token"
	"github.com/udao-org/udao-ledger/builtin/treasury"
	"github.com/udao-org/udao-ledger/builtin/validation"
	"github.com/udao-org/udao-ledger/state"
	"github.com/udao-org/udao-ledger/udao"
)

// Builtin contracts.
var (
	Roles      = newContract("Roles")
	Token      = newContract("Token")
	VP         = newContract("UDAOVp")
	Content    = newContract("Content")
	Oracle     = newContract("Oracle")
	Staker     = newContract("Staker")
	Validation = newContract("Validation")
	Treasury   = newContract("Treasury")

	All = []*Contract{Roles, Token, VP, Content, Oracle, Staker, Validation, Treasury}
)

// Contract is the identity of a builtin contract.
type Contract struct {
	Name    string
	Address udao.Address
}

func newContract(name string) *Contract {
	return &Contract{name, udao.BytesToAddress([]byte(name))}
}

// ByAddress returns the builtin contract at addr.
func ByAddress(addr udao.Address) (*Contract, bool) {
	for _, c := range All {
		if c.Address == addr {
			return c, true
		}
	}
	return nil, false
}

func (c *Contract) context(state *state.State, emit solidity.EmitFunc) *solidity.Context {
	return solidity.NewContext(c.Address, state, emit)
}

// Contracts is the set of contracts bound to one state at one block time.
type Contracts struct {
	Roles      *roles.Roles
	Token      *token.Token
	VP         *token.Token
	Content    *content.Registry
	Oracle     *oracle.Oracle
	Staker     *staker.Staker
	Validation *validation.Validation
	Treasury   *treasury.Treasury
}

// New binds every contract to state. Events are passed to emit; blockTime is the
// time every time dependent rule is evaluated at.
func New(state *state.State, emit solidity.EmitFunc, blockTime uint64) *Contracts {
	c := &Contracts{}
	c.Roles = roles.New(Roles.context(state, emit))
	c.Token = token.New(Token.context(state, emit), "UDAO", c.Roles)
	c.VP = token.New(VP.context(state, emit), "UDAO-vp", c.Roles)
	c.Content = content.New(Content.context(state, emit), c.Roles)
	c.Oracle = oracle.New(Oracle.context(state, emit), c.Roles)
	c.Staker = staker.New(Staker.context(state, emit), c.Roles, c.Token, c.VP, Treasury.Address, blockTime)
	c.Validation = validation.New(Validation.context(state, emit), c.Roles, c.Content, blockTime)
	c.Treasury = treasury.New(Treasury.context(state, emit), c.Roles, c.Token, c.Content, c.Oracle, blockTime)
	return c
}
