// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"gopkg.in/yaml.v3"
)

// Amount is a token amount written as a decimal or 0x-hex string.
type Amount math.HexOrDecimal256

// NewAmount wraps v.
func NewAmount(v *big.Int) *Amount {
	return (*Amount)(v)
}

// Big returns the amount as a big.Int, nil for a nil amount.
func (a *Amount) Big() *big.Int {
	if a == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(a))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	v, ok := math.ParseBig256(value.Value)
	if !ok {
		return fmt.Errorf("line %d: invalid amount %q", value.Line, value.Value)
	}
	*a = Amount(*v)
	return nil
}

// MarshalYAML implements yaml.Marshaler, always in decimal.
func (a *Amount) MarshalYAML() (any, error) {
	return (*big.Int)(a).String(), nil
}
