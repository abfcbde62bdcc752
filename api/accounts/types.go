// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/udao-org/udao-ledger/udao"
)

type Account struct {
	Address     udao.Address          `json:"address"`
	Nonce       uint64                `json:"nonce"`
	KYC         bool                  `json:"kyc"`
	Banned      bool                  `json:"banned"`
	Roles       []string              `json:"roles"`
	Balance     *math.HexOrDecimal256 `json:"balance"`
	VotingPower *math.HexOrDecimal256 `json:"votingPower"`
	Governance  *Governance           `json:"governance"`
	Staking     *Staking              `json:"staking"`
	Validator   *Validator            `json:"validator"`
	Instructor  *Instructor           `json:"instructor"`
}

type Governance struct {
	Stake        *math.HexOrDecimal256 `json:"stake"`
	Withdrawable *math.HexOrDecimal256 `json:"withdrawable"`
	Locks        []*Lock               `json:"locks"`
}

type Lock struct {
	Amount      *math.HexOrDecimal256 `json:"amount"`
	VotingPower *math.HexOrDecimal256 `json:"votingPower"`
	UnlockAt    uint64                `json:"unlockAt"`
}

type Staking struct {
	Applications          []*Application        `json:"applications"`
	WithdrawableValidator *math.HexOrDecimal256 `json:"withdrawableValidatorStake"`
	WithdrawableJuror     *math.HexOrDecimal256 `json:"withdrawableJurorStake"`
	JobListings           []uint64              `json:"jobListings"`
	Rewards               *math.HexOrDecimal256 `json:"rewards"`
}

// Application is the latest role application of the account, one per role id
// applied for.
type Application struct {
	RoleID    uint8                 `json:"roleId"`
	Status    string                `json:"status"`
	Stake     *math.HexOrDecimal256 `json:"stake"`
	AppliedAt uint64                `json:"appliedAt"`
	DecidedAt uint64                `json:"decidedAt"`
}

type Validator struct {
	Score uint64 `json:"score"`
}

type Instructor struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}
