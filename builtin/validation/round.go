// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"github.com/udao-org/udao-ledger/udao"
)

// Status of a validation round.
type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Assignment is a validator taking part in a round and its vote.
type Assignment struct {
	Validator udao.Address
	Voted     bool
	Verdict   bool
}

// Round is one validation of a content item.
type Round struct {
	ContentID     uint64
	Index         uint64 // position among the rounds of the content
	RequiredScore uint64 // percentage of yes votes needed to pass
	CreatedAt     uint64
	Deadline      uint64
	Status        Status
	Result        bool
	Assignments   []*Assignment
}

func (r *Round) assignment(validator udao.Address) *Assignment {
	for _, a := range r.Assignments {
		if a.Validator == validator {
			return a
		}
	}
	return nil
}

// Tally returns the yes votes and the votes cast.
func (r *Round) Tally() (yes, cast uint64) {
	for _, a := range r.Assignments {
		if !a.Voted {
			continue
		}
		cast++
		if a.Verdict {
			yes++
		}
	}
	return
}

// Passes applies the quorum rule: the share of yes votes among the votes cast must reach
// the required score. A round without votes never passes.
func (r *Round) Passes() bool {
	yes, cast := r.Tally()
	if cast == 0 {
		return false
	}
	return yes*100 >= r.RequiredScore*cast
}
