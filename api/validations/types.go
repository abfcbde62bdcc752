// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validations

import (
	"github.com/udao-org/udao-ledger/builtin/validation"
	"github.com/udao-org/udao-ledger/udao"
)

type Validation struct {
	ID            uint64        `json:"id"`
	ContentID     uint64        `json:"contentId"`
	Index         uint64        `json:"index"`
	RequiredScore uint64        `json:"requiredScore"`
	CreatedAt     uint64        `json:"createdAt"`
	Deadline      uint64        `json:"deadline"`
	Status        string        `json:"status"`
	Result        bool          `json:"result"`
	Yes           uint64        `json:"yes"`
	Cast          uint64        `json:"cast"`
	Assignments   []*Assignment `json:"assignments"`
}

type Assignment struct {
	Validator udao.Address `json:"validator"`
	Voted     bool         `json:"voted"`
	Verdict   *bool        `json:"verdict"`
}

// Convert renders the round with the given id.
func Convert(id uint64, r *validation.Round) *Validation {
	yes, cast := r.Tally()
	v := &Validation{
		ID:            id,
		ContentID:     r.ContentID,
		Index:         r.Index,
		RequiredScore: r.RequiredScore,
		CreatedAt:     r.CreatedAt,
		Deadline:      r.Deadline,
		Status:        r.Status.String(),
		Result:        r.Result,
		Yes:           yes,
		Cast:          cast,
		Assignments:   make([]*Assignment, 0, len(r.Assignments)),
	}
	for _, a := range r.Assignments {
		as := &Assignment{Validator: a.Validator, Voted: a.Voted}
		if a.Voted {
			verdict := a.Verdict
			as.Verdict = &verdict
		}
		v.Assignments = append(v.Assignments, as)
	}
	return v
}
