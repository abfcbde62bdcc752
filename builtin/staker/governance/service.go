// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package governance keeps the time-locked governance stakes. Every stake call
// appends a lock entry; withdrawals consume unlocked entries oldest first.
package governance

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/udao"
)

var (
	slotLocks  = udao.BytesToBytes32([]byte("governance-locks"))
	slotStaked = udao.BytesToBytes32([]byte("governance-staked"))

	ErrNotEnoughWithdrawable = reverts.NewWithKind(reverts.Resource, "You don't have enough withdrawable balance")
)

// Lock is one governance stake entry. VotingPower is what remains minted for Amount.
type Lock struct {
	Amount      *big.Int
	VotingPower *big.Int
	UnlockAt    uint64
}

type Service struct {
	sctx   *solidity.Context
	staked *solidity.Mapping[udao.Address, *big.Int]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		sctx:   sctx,
		staked: solidity.NewMapping[udao.Address, *big.Int](sctx, slotStaked),
	}
}

func (s *Service) locks(account udao.Address) *solidity.List[*Lock] {
	return solidity.NewList[*Lock](s.sctx, udao.Blake2b(slotLocks.Bytes(), account.Bytes()))
}

// Staked returns the amount the account still has locked or unlocked but not withdrawn.
func (s *Service) Staked(account udao.Address) (*big.Int, error) {
	v, err := s.staked.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get governance stake")
	}
	return v, nil
}

// IsMember reports whether the account holds a non-zero governance stake.
func (s *Service) IsMember(account udao.Address) (bool, error) {
	staked, err := s.Staked(account)
	if err != nil {
		return false, err
	}
	return staked.Sign() > 0, nil
}

// Locks returns every lock entry of the account, including consumed ones.
func (s *Service) Locks(account udao.Address) ([]*Lock, error) {
	locks, err := s.locks(account).All()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get governance locks")
	}
	return locks, nil
}

// Stake appends a lock entry.
func (s *Service) Stake(account udao.Address, amount, votingPower *big.Int, unlockAt uint64) error {
	if _, err := s.locks(account).Push(&Lock{
		Amount:      new(big.Int).Set(amount),
		VotingPower: new(big.Int).Set(votingPower),
		UnlockAt:    unlockAt,
	}); err != nil {
		return errors.Wrap(err, "failed to add governance lock")
	}
	staked, err := s.Staked(account)
	if err != nil {
		return err
	}
	if err := s.staked.Set(account, staked.Add(staked, amount)); err != nil {
		return errors.Wrap(err, "failed to set governance stake")
	}
	return nil
}

// Withdrawable returns the sum of entries unlocked at now.
func (s *Service) Withdrawable(account udao.Address, now uint64) (*big.Int, error) {
	locks, err := s.Locks(account)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, l := range locks {
		if l.UnlockAt <= now {
			total.Add(total, l.Amount)
		}
	}
	return total, nil
}

// Withdraw releases amount from unlocked entries, oldest first, and returns the voting
// power to burn. A partially consumed entry gives up voting power in proportion.
func (s *Service) Withdraw(account udao.Address, amount *big.Int, now uint64) (*big.Int, error) {
	withdrawable, err := s.Withdrawable(account, now)
	if err != nil {
		return nil, err
	}
	if withdrawable.Cmp(amount) < 0 {
		return nil, ErrNotEnoughWithdrawable
	}

	list := s.locks(account)
	n, err := list.Len()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get governance locks")
	}
	remaining := new(big.Int).Set(amount)
	burn := new(big.Int)
	for i := uint64(0); i < n && remaining.Sign() > 0; i++ {
		l, err := list.Get(i)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get governance lock")
		}
		if l.UnlockAt > now || l.Amount.Sign() == 0 {
			continue
		}
		take := remaining
		if l.Amount.Cmp(remaining) < 0 {
			take = l.Amount
		}
		take = new(big.Int).Set(take)

		vp := new(big.Int).Mul(l.VotingPower, take)
		vp.Div(vp, l.Amount)

		l.Amount.Sub(l.Amount, take)
		l.VotingPower.Sub(l.VotingPower, vp)
		if err := list.Set(i, l); err != nil {
			return nil, errors.Wrap(err, "failed to set governance lock")
		}
		remaining.Sub(remaining, take)
		burn.Add(burn, vp)
	}

	staked, err := s.Staked(account)
	if err != nil {
		return nil, err
	}
	if err := s.staked.Set(account, staked.Sub(staked, amount)); err != nil {
		return nil, errors.Wrap(err, "failed to set governance stake")
	}
	return burn, nil
}
