// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package applications

import (
	"math/big"
)

// Status of a role application.
type Status uint8

const (
	StatusNone Status = iota
	StatusPending
	StatusApproved
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "none"
	}
}

// Application is the record of one (applicant, role id) pair. Stake is the amount still
// held for it; it drops to zero once withdrawn.
type Application struct {
	Status    Status
	Stake     *big.Int
	AppliedAt uint64
	DecidedAt uint64
}

// IsPending returns true if the application awaits a decision.
func (a *Application) IsPending() bool {
	return a.Status == StatusPending
}

// WithdrawableAt returns the earliest time the stake can be withdrawn and whether it can be at all.
func (a *Application) WithdrawableAt(cooldown uint64) (uint64, bool) {
	switch a.Status {
	case StatusRejected:
		return a.DecidedAt, true
	case StatusApproved:
		return a.DecidedAt + cooldown, true
	default:
		return 0, false
	}
}
