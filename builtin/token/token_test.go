// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/lvldb"
	"github.com/udao-org/udao-ledger/state"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

var (
	foundation = udao.BytesToAddress([]byte("foundation"))
	alice      = udao.BytesToAddress([]byte("alice"))
	bob        = udao.BytesToAddress([]byte("bob"))
	escrow     = udao.BytesToAddress([]byte("escrow"))
)

func newToken(t *testing.T) (*Token, *tx.Events) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	events := &tx.Events{}
	emit := func(ev *tx.Event) { *events = append(*events, ev) }

	r := roles.New(solidity.NewContext(udao.BytesToAddress([]byte("Roles")), st, emit))
	require.NoError(t, r.Grant(roles.Foundation, foundation))
	tok := New(solidity.NewContext(udao.BytesToAddress([]byte("Token")), st, emit), "UDAO", r)
	*events = (*events)[:0]
	return tok, events
}

func balance(t *testing.T, tok *Token, account udao.Address) string {
	b, err := tok.BalanceOf(account)
	require.NoError(t, err)
	return b.String()
}

func TestMintAndTransfer(t *testing.T) {
	tok, events := newToken(t)

	require.NoError(t, tok.Mint(foundation, alice, udao.Tokens(10)))
	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, udao.Tokens(10).String(), supply.String())

	require.NoError(t, tok.Transfer(alice, bob, udao.Tokens(4)))
	assert.Equal(t, udao.Tokens(6).String(), balance(t, tok, alice))
	assert.Equal(t, udao.Tokens(4).String(), balance(t, tok, bob))

	assert.Equal(t, ErrInsufficientBalance, tok.Transfer(bob, alice, udao.Tokens(5)))
	assert.Equal(t, udao.Tokens(4).String(), balance(t, tok, bob))

	require.Len(t, *events, 2)
	assert.Equal(t, []string{udao.Address{}.String(), alice.String(), udao.Tokens(10).String()}, (*events)[0].Args)
	assert.Equal(t, "Transfer", (*events)[1].Name)

	var missing *roles.MissingRoleError
	assert.ErrorAs(t, tok.Mint(alice, alice, udao.Tokens(1)), &missing)
}

func TestAllowance(t *testing.T) {
	tok, _ := newToken(t)
	require.NoError(t, tok.Issue(alice, udao.Tokens(5)))

	assert.Equal(t, ErrInsufficientAllowance, tok.TransferFrom(escrow, alice, escrow, udao.Tokens(1)))

	require.NoError(t, tok.Approve(alice, escrow, udao.Tokens(3)))
	require.NoError(t, tok.TransferFrom(escrow, alice, escrow, udao.Tokens(2)))

	allowance, err := tok.Allowance(alice, escrow)
	require.NoError(t, err)
	assert.Equal(t, udao.Tokens(1).String(), allowance.String())
	assert.Equal(t, udao.Tokens(2).String(), balance(t, tok, escrow))
	assert.Equal(t, ErrInsufficientAllowance, tok.TransferFrom(escrow, alice, escrow, udao.Tokens(2)))
}

func TestBurn(t *testing.T) {
	tok, _ := newToken(t)
	require.NoError(t, tok.Issue(alice, udao.Tokens(3)))

	assert.Equal(t, ErrInsufficientBalance, tok.Burn(alice, udao.Tokens(4)))
	require.NoError(t, tok.Burn(alice, udao.Tokens(1)))

	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, udao.Tokens(2).String(), supply.String())
	assert.Equal(t, ErrZeroAddress, tok.Move(alice, udao.Address{}, udao.Tokens(1)))
}
