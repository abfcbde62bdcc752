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

// StakeForGovernance locks amount for lockDays and mints amount x lockDays voting power.
func (s *Staker) StakeForGovernance(caller udao.Address, amount *big.Int, lockDays uint64) (*big.Int, error) {
	if err := s.whenNotPaused(); err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, ErrZeroStake
	}
	if lockDays < MinLockDays {
		return nil, ErrLockTooShort
	}
	if lockDays > MaxLockDays {
		return nil, ErrLockTooLong
	}
	if err := s.registry.Authorize(caller, roles.KYCed(ErrNotKYCed), roles.NotBanned(ErrBanned)); err != nil {
		return nil, err
	}

	if err := s.deposit(caller, amount); err != nil {
		return nil, err
	}
	votingPower := new(big.Int).Mul(amount, new(big.Int).SetUint64(lockDays))
	if err := s.governanceService.Stake(caller, amount, votingPower, s.blockTime+udao.Days(lockDays)); err != nil {
		return nil, err
	}
	if err := s.vp.Issue(caller, votingPower); err != nil {
		return nil, err
	}

	logger.Debug("governance stake", "account", caller, "amount", amount, "lockDays", lockDays, "vp", votingPower)
	s.sctx.Emit("GovernanceStake", caller, amount, votingPower)
	return votingPower, nil
}

// WithdrawGovernanceStake returns amount of unlocked governance stake and burns the
// voting power it minted.
func (s *Staker) WithdrawGovernanceStake(caller udao.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrZeroWithdraw
	}
	burned, err := s.governanceService.Withdraw(caller, amount, s.blockTime)
	if err != nil {
		return err
	}
	if err := s.vp.Burn(caller, burned); err != nil {
		return err
	}
	if err := s.payout(caller, amount); err != nil {
		return err
	}

	logger.Debug("governance stake withdrawn", "account", caller, "amount", amount, "vpBurned", burned)
	s.sctx.Emit("GovernanceStakeWithdraw", caller, amount, burned)
	return nil
}
