// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/builtin/staker/governance"
	"github.com/udao-org/udao-ledger/builtin/staker/listings"
)

var (
	ErrPaused                = reverts.New("Pausable: paused")
	ErrNotKYCed              = reverts.NewWithKind(reverts.Authorization, "You are not KYCed")
	ErrBanned                = reverts.NewWithKind(reverts.Authorization, "You were banned")
	ErrNotGovernanceMember   = reverts.NewWithKind(reverts.Authorization, "You have to be governance member to apply")
	ErrNotValidator          = reverts.NewWithKind(reverts.Authorization, "Address should be a Validator")
	ErrAlreadyValidator      = reverts.New("Address is already a Validator")
	ErrAlreadySuperValidator = reverts.New("Address is already a Super Validator")
	ErrAlreadyJuror          = reverts.New("Address is already a Juror")
	ErrPendingApplication    = reverts.New("You already have a pending application")
	ErrUndefinedRole         = reverts.New("Undefined role ID!")
	ErrRoleNotFound          = reverts.New("Role Id does not exist!")

	ErrZeroStake    = reverts.New("Stake amount can't be 0")
	ErrLockTooShort = reverts.New("Can't stake less than 7 days")
	ErrLockTooLong  = reverts.New("Can't stake more than 1460 days")
	ErrZeroWithdraw = reverts.New("Withdraw amount can't be 0")
	ErrZeroJobCount = reverts.New("Zero job listing count is not allowed")
	ErrTooManyJobs  = reverts.New("Too many job listings in one call")
	ErrNoWithdrawal = reverts.NewWithKind(reverts.Resource, "You don't have any withdrawable stake")
	ErrNoReward     = reverts.NewWithKind(reverts.Resource, "You don't have any reward")
	ErrZeroTreasury = reverts.New("Treasury address can't be zero")
	ErrNegative     = reverts.New("Amount can't be negative")

	ErrNotEnoughWithdrawable = governance.ErrNotEnoughWithdrawable
	ErrNothingToUnstake      = listings.ErrNothingToUnstake
)
