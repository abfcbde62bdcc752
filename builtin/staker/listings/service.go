// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package listings keeps the per-listing stakes of corporate job listings.
package listings

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/udao"
)

var (
	slotNextID = udao.BytesToBytes32([]byte("listing-next-id"))
	slotStakes = udao.BytesToBytes32([]byte("listing-stakes"))

	ErrNothingToUnstake = reverts.NewWithKind(reverts.Resource, "Cannot unstake zero tokens")
)

type key struct {
	owner udao.Address
	id    uint64
}

func (k key) Bytes() []byte {
	return binary.BigEndian.AppendUint64(k.owner.Bytes(), k.id)
}

type Service struct {
	nextID *solidity.Mapping[udao.Address, uint64]
	stakes *solidity.Mapping[key, *big.Int]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		nextID: solidity.NewMapping[udao.Address, uint64](sctx, slotNextID),
		stakes: solidity.NewMapping[key, *big.Int](sctx, slotStakes),
	}
}

// Register records count listings of owner staked with stake each and returns their ids.
// Ids are numbered per owner from zero.
func (s *Service) Register(owner udao.Address, count uint64, stake *big.Int) ([]uint64, error) {
	next, err := s.nextID.Get(owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get listing id")
	}
	ids := make([]uint64, 0, count)
	for i := range count {
		id := next + i
		if err := s.stakes.Set(key{owner, id}, stake); err != nil {
			return nil, errors.Wrap(err, "failed to set listing stake")
		}
		ids = append(ids, id)
	}
	if err := s.nextID.Set(owner, next+count); err != nil {
		return nil, errors.Wrap(err, "failed to set listing id")
	}
	return ids, nil
}

// Unregister releases the listings and returns the sum of their stakes. Every id must be
// staked, otherwise nothing is released.
func (s *Service) Unregister(owner udao.Address, ids []uint64) (*big.Int, error) {
	if len(ids) == 0 {
		return nil, ErrNothingToUnstake
	}
	total := new(big.Int)
	for _, id := range ids {
		stake, err := s.Stake(owner, id)
		if err != nil {
			return nil, err
		}
		if stake.Sign() == 0 {
			return nil, ErrNothingToUnstake
		}
		s.stakes.Delete(key{owner, id})
		total.Add(total, stake)
	}
	return total, nil
}

// Stake returns the stake of one listing, zero when it is not registered.
func (s *Service) Stake(owner udao.Address, id uint64) (*big.Int, error) {
	stake, err := s.stakes.Get(key{owner, id})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get listing stake")
	}
	return stake, nil
}

// Active returns the ids of the owner's staked listings.
func (s *Service) Active(owner udao.Address) ([]uint64, error) {
	next, err := s.nextID.Get(owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get listing id")
	}
	var ids []uint64
	for id := range next {
		stake, err := s.Stake(owner, id)
		if err != nil {
			return nil, err
		}
		if stake.Sign() > 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
