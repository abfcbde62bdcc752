// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/udao"
)

// Role ids used by applications and role vouchers.
const (
	RoleValidator uint8 = iota
	RoleJuror
	RoleCorporate
	RoleSuperValidator

	roleCount
)

var roleTags = [roleCount]udao.Bytes32{roles.Validator, roles.Juror, roles.Corporate, roles.SuperValidator}

// Governance lock bounds in days.
const (
	MinLockDays = 7
	MaxLockDays = 1460
)

var (
	defaultValidatorLockAmount      = udao.Tokens(150)
	defaultSuperValidatorLockAmount = new(big.Int)
	defaultJurorLockAmount          = udao.Tokens(150)
	defaultJobListingStake          = udao.Tokens(500)
	defaultVoteReward               = udao.Fraction(1, 10000)
	defaultCooldown                 = big.NewInt(259200) // 3 days
)
