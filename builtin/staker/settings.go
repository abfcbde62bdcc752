// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/udao"
)

func (s *Staker) SetValidatorLockAmount(caller udao.Address, amount *big.Int) error {
	return s.setAmount(caller, s.validatorLockAmount, "SetValidatorLockAmount", amount)
}

func (s *Staker) SetSuperValidatorLockAmount(caller udao.Address, amount *big.Int) error {
	return s.setAmount(caller, s.superValidatorLockAmount, "SetSuperValidatorLockAmount", amount)
}

func (s *Staker) SetJurorLockAmount(caller udao.Address, amount *big.Int) error {
	return s.setAmount(caller, s.jurorLockAmount, "SetJurorLockAmount", amount)
}

func (s *Staker) SetJobListingStake(caller udao.Address, amount *big.Int) error {
	return s.setAmount(caller, s.jobListingStake, "SetJobListingStake", amount)
}

func (s *Staker) SetVoteReward(caller udao.Address, amount *big.Int) error {
	return s.setAmount(caller, s.voteReward, "SetVoteReward", amount)
}

func (s *Staker) setAmount(caller udao.Address, v *solidity.ConfigVariable, event string, amount *big.Int) error {
	if err := s.registry.Authorize(caller, roles.AnyRole(roles.Foundation)); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return ErrNegative
	}
	if err := v.Set(amount); err != nil {
		return err
	}
	logger.Info("staker parameter changed", "name", v.Name(), "value", amount)
	s.sctx.Emit(event, amount)
	return nil
}

// SetPlatformTreasuryAddress changes the account vote rewards are paid from.
func (s *Staker) SetPlatformTreasuryAddress(caller, treasury udao.Address) error {
	if err := s.registry.Authorize(caller, roles.AnyRole(roles.Foundation)); err != nil {
		return err
	}
	if treasury.IsZero() {
		return ErrZeroTreasury
	}
	s.treasury.Set(treasury)
	s.sctx.Emit("SetPlatformTreasuryAddress", treasury)
	return nil
}

// Pause blocks staking, applications and job listing registration.
func (s *Staker) Pause(caller udao.Address) error {
	return s.setPaused(caller, true, "Paused")
}

func (s *Staker) Unpause(caller udao.Address) error {
	return s.setPaused(caller, false, "Unpaused")
}

func (s *Staker) setPaused(caller udao.Address, paused bool, event string) error {
	if err := s.registry.Authorize(caller, roles.AnyRole(roles.Backend, roles.Foundation)); err != nil {
		return err
	}
	s.paused.Set(paused)
	logger.Info("staker pause switch", "paused", paused, "by", caller)
	s.sctx.Emit(event, caller)
	return nil
}
