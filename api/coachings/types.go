// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package coachings

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/builtin/treasury"
	"github.com/udao-org/udao-ledger/udao"
)

type Coaching struct {
	ID         uint64                `json:"id"`
	ContentID  uint64                `json:"contentId"`
	Buyer      udao.Address          `json:"buyer"`
	Coach      udao.Address          `json:"coach"`
	Price      *math.HexOrDecimal256 `json:"price"`
	Refundable bool                  `json:"refundable"`
	BoughtAt   uint64                `json:"boughtAt"`
	Deadline   uint64                `json:"deadline"`
	Status     string                `json:"status"`
}

// Convert renders the purchase with the given id.
func Convert(id uint64, c *treasury.Coaching) *Coaching {
	return &Coaching{
		ID:         id,
		ContentID:  c.ContentID,
		Buyer:      c.Buyer,
		Coach:      c.Coach,
		Price:      utils.Amount(c.Price),
		Refundable: c.Refundable,
		BoughtAt:   c.BoughtAt,
		Deadline:   c.Deadline,
		Status:     c.Status.String(),
	}
}
