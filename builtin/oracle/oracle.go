// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package oracle prices purchases made in currencies other than UDAO.
package oracle

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/udao"
)

// Native is the currency tag of the UDAO token itself.
const Native = "UDAO"

var (
	slotRates = udao.BytesToBytes32([]byte("rates"))

	ErrUnknownCurrency = reverts.New("Unknown currency")
	ErrInvalidRate     = reverts.New("Invalid rate")
)

type currencyKey string

func (k currencyKey) Bytes() []byte {
	return []byte(k)
}

// Rate converts an amount of a currency into UDAO: out = in * Numerator / Denominator.
type Rate struct {
	Numerator   *big.Int
	Denominator *big.Int
}

// Oracle binder of the price oracle.
type Oracle struct {
	sctx  *solidity.Context
	auth  roles.Authorizer
	rates *solidity.Mapping[currencyKey, *Rate]
}

func New(sctx *solidity.Context, auth roles.Authorizer) *Oracle {
	return &Oracle{
		sctx:  sctx,
		auth:  auth,
		rates: solidity.NewMapping[currencyKey, *Rate](sctx, slotRates),
	}
}

// SetRate sets the conversion rate of a currency. Caller must be foundation.
func (o *Oracle) SetRate(caller udao.Address, currency string, numerator, denominator *big.Int) error {
	if err := o.auth.Authorize(caller, roles.AnyRole(roles.Foundation)); err != nil {
		return err
	}
	return o.Put(currency, numerator, denominator)
}

// Put stores a rate without an authorization check.
func (o *Oracle) Put(currency string, numerator, denominator *big.Int) error {
	if currency == Native || numerator.Sign() <= 0 || denominator.Sign() <= 0 {
		return ErrInvalidRate
	}
	if err := o.rates.Set(currencyKey(currency), &Rate{numerator, denominator}); err != nil {
		return errors.Wrap(err, "failed to set rate")
	}
	o.sctx.Emit("RateSet", currency, numerator, denominator)
	return nil
}

// GetQuote returns the UDAO amount matching amountIn of currency.
func (o *Oracle) GetQuote(amountIn *big.Int, currency string) (*big.Int, error) {
	if currency == Native || currency == "" {
		return new(big.Int).Set(amountIn), nil
	}
	rate, err := o.rates.Get(currencyKey(currency))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rate")
	}
	if rate.Denominator == nil || rate.Denominator.Sign() == 0 {
		return nil, ErrUnknownCurrency
	}
	out := new(big.Int).Mul(amountIn, rate.Numerator)
	return out.Div(out, rate.Denominator), nil
}
