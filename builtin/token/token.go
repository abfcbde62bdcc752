// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible token ledger used for payments, stakes and
// voting power. Contracts move funds they hold through the native methods.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/udao"
)

var (
	slotBalances    = udao.BytesToBytes32([]byte("balances"))
	slotAllowances  = udao.BytesToBytes32([]byte("allowances"))
	slotTotalSupply = udao.BytesToBytes32([]byte("total-supply"))

	ErrInsufficientBalance   = reverts.NewWithKind(reverts.Resource, "ERC20: transfer amount exceeds balance")
	ErrInsufficientAllowance = reverts.NewWithKind(reverts.Resource, "ERC20: insufficient allowance")
	ErrNegativeAmount        = reverts.New("ERC20: negative amount")
	ErrZeroAddress           = reverts.New("ERC20: zero address")
)

type allowanceKey struct {
	owner   udao.Address
	spender udao.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Token binder of a token contract.
type Token struct {
	sctx       *solidity.Context
	symbol     string
	auth       roles.Authorizer
	balances   *solidity.Mapping[udao.Address, *big.Int]
	allowances *solidity.Mapping[allowanceKey, *big.Int]
	supply     *solidity.Uint256
}

func New(sctx *solidity.Context, symbol string, auth roles.Authorizer) *Token {
	return &Token{
		sctx:       sctx,
		symbol:     symbol,
		auth:       auth,
		balances:   solidity.NewMapping[udao.Address, *big.Int](sctx, slotBalances),
		allowances: solidity.NewMapping[allowanceKey, *big.Int](sctx, slotAllowances),
		supply:     solidity.NewUint256(sctx, slotTotalSupply),
	}
}

func (t *Token) Address() udao.Address {
	return t.sctx.Address()
}

func (t *Token) Symbol() string {
	return t.symbol
}

func (t *Token) BalanceOf(account udao.Address) (*big.Int, error) {
	b, err := t.balances.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return b, nil
}

func (t *Token) Allowance(owner, spender udao.Address) (*big.Int, error) {
	a, err := t.allowances.Get(allowanceKey{owner, spender})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get allowance")
	}
	return a, nil
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

// Transfer moves amount from the caller to to.
func (t *Token) Transfer(caller, to udao.Address, amount *big.Int) error {
	return t.Move(caller, to, amount)
}

// Approve sets the amount spender may move out of the caller's balance.
func (t *Token) Approve(caller, spender udao.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if spender.IsZero() {
		return ErrZeroAddress
	}
	if err := t.allowances.Set(allowanceKey{caller, spender}, amount); err != nil {
		return errors.Wrap(err, "failed to set allowance")
	}
	t.sctx.Emit("Approval", caller, spender, amount)
	return nil
}

// TransferFrom moves amount from from to to, spending the caller's allowance.
func (t *Token) TransferFrom(caller, from, to udao.Address, amount *big.Int) error {
	allowance, err := t.Allowance(from, caller)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.allowances.Set(allowanceKey{from, caller}, allowance.Sub(allowance, amount)); err != nil {
		return errors.Wrap(err, "failed to set allowance")
	}
	return t.Move(from, to, amount)
}

// Mint creates amount new tokens for to. Caller must be foundation.
func (t *Token) Mint(caller, to udao.Address, amount *big.Int) error {
	if err := t.auth.Authorize(caller, roles.AnyRole(roles.Foundation)); err != nil {
		return err
	}
	return t.Issue(to, amount)
}

//
// Native - no authorization, reached from other contracts and genesis
//

// Move transfers amount between two accounts.
func (t *Token) Move(from, to udao.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	balance, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := t.balances.Set(from, balance.Sub(balance, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	t.sctx.Emit("Transfer", from, to, amount)
	return nil
}

// Issue mints amount to the account.
func (t *Token) Issue(to udao.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if to.IsZero() {
		return ErrZeroAddress
	}
	if err := t.supply.Add(amount); err != nil {
		return errors.Wrap(err, "failed to increase supply")
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	t.sctx.Emit("Transfer", udao.Address{}, to, amount)
	return nil
}

// Burn destroys amount held by the account.
func (t *Token) Burn(from udao.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	balance, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := t.balances.Set(from, balance.Sub(balance, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	if err := t.supply.Sub(amount); err != nil {
		return errors.Wrap(err, "failed to decrease supply")
	}
	t.sctx.Emit("Transfer", from, udao.Address{}, amount)
	return nil
}

func (t *Token) credit(to udao.Address, amount *big.Int) error {
	balance, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := t.balances.Set(to, balance.Add(balance, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}
