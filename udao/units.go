// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package udao

import (
	"math/big"
	"time"
)

const (
	// Day is the length of a day in seconds, the unit of every lock period and deadline.
	Day uint64 = 86400

	// Decimals of the UDAO token.
	Decimals = 18
)

var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Tokens returns n whole tokens in base units.
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), unit)
}

// Fraction returns num/den tokens in base units, e.g. Fraction(1, 10000) is 0.0001 token.
func Fraction(num, den int64) *big.Int {
	v := new(big.Int).Mul(big.NewInt(num), unit)
	return v.Div(v, big.NewInt(den))
}

// Days converts a number of days into seconds.
func Days(n uint64) uint64 {
	return n * Day
}

// Timestamp converts a wall-clock time into ledger seconds.
func Timestamp(t time.Time) uint64 {
	return uint64(t.Unix())
}
