// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package treasury

import (
	"math/big"

	"github.com/udao-org/udao-ledger/udao"
)

// Status of a coaching purchase.
type Status uint8

const (
	StatusActive Status = iota + 1
	StatusFinalized
	StatusRefunded
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFinalized:
		return "finalized"
	case StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Coaching is an escrowed coaching purchase.
type Coaching struct {
	ContentID  uint64
	Buyer      udao.Address
	Coach      udao.Address
	Price      *big.Int
	Refundable bool
	BoughtAt   uint64
	Deadline   uint64
	Status     Status
}

// IsParty returns true if the account is the buyer or the coach.
func (c *Coaching) IsParty(account udao.Address) bool {
	return account == c.Buyer || account == c.Coach
}
