// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/lvldb"
	"github.com/udao-org/udao-ledger/state"
	"github.com/udao-org/udao-ledger/udao"
)

func TestQuote(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	foundation := udao.BytesToAddress([]byte("foundation"))

	r := roles.New(solidity.NewContext(udao.BytesToAddress([]byte("Roles")), st, nil))
	require.NoError(t, r.Grant(roles.Foundation, foundation))
	o := New(solidity.NewContext(udao.BytesToAddress([]byte("Oracle")), st, nil), r)

	out, err := o.GetQuote(udao.Tokens(3), Native)
	require.NoError(t, err)
	assert.Equal(t, udao.Tokens(3).String(), out.String())

	_, err = o.GetQuote(udao.Tokens(3), "USDT")
	assert.Equal(t, ErrUnknownCurrency, err)

	var missing *roles.MissingRoleError
	assert.ErrorAs(t, o.SetRate(udao.BytesToAddress([]byte("eve")), "USDT", big.NewInt(2), big.NewInt(1)), &missing)
	assert.Equal(t, ErrInvalidRate, o.SetRate(foundation, "USDT", big.NewInt(2), big.NewInt(0)))
	assert.Equal(t, ErrInvalidRate, o.SetRate(foundation, Native, big.NewInt(2), big.NewInt(1)))

	// 1 USDT buys 2.5 UDAO
	require.NoError(t, o.SetRate(foundation, "USDT", big.NewInt(5), big.NewInt(2)))
	out, err = o.GetQuote(udao.Tokens(2), "USDT")
	require.NoError(t, err)
	assert.Equal(t, udao.Tokens(5).String(), out.String())
}
