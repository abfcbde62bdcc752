// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/udao"
)

// AddVoteReward credits voter with the vote reward scaled by its share of all voting
// power. Caller must be the governance module.
func (s *Staker) AddVoteReward(caller, voter udao.Address) (*big.Int, error) {
	if err := s.registry.Authorize(caller, roles.AnyRole(roles.Governance)); err != nil {
		return nil, err
	}
	total, err := s.vp.TotalSupply()
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return new(big.Int), nil
	}
	power, err := s.vp.BalanceOf(voter)
	if err != nil {
		return nil, err
	}
	reward, err := s.voteReward.Get()
	if err != nil {
		return nil, err
	}
	reward.Mul(reward, power).Div(reward, total)

	accrued, err := s.Rewards(voter)
	if err != nil {
		return nil, err
	}
	if err := s.rewards.Set(voter, accrued.Add(accrued, reward)); err != nil {
		return nil, errors.Wrap(err, "failed to set rewards")
	}
	s.sctx.Emit("VoteRewardAdded", voter, reward)
	return reward, nil
}

// WithdrawRewards pays the caller's accrued vote rewards out of the platform treasury.
func (s *Staker) WithdrawRewards(caller udao.Address) (*big.Int, error) {
	amount, err := s.Rewards(caller)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, ErrNoReward
	}
	if err := s.rewards.Set(caller, new(big.Int)); err != nil {
		return nil, errors.Wrap(err, "failed to set rewards")
	}
	treasury, err := s.PlatformTreasury()
	if err != nil {
		return nil, err
	}
	if err := s.token.Move(treasury, caller, amount); err != nil {
		return nil, err
	}
	s.sctx.Emit("VoteRewardsWithdrawn", caller, amount)
	return amount, nil
}
