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

// MaxJobListings bounds the listings registered by one call.
const MaxJobListings = 100

// RegisterJobListing stakes the job listing stake for count new listings of a corporate
// account and returns their ids.
func (s *Staker) RegisterJobListing(caller udao.Address, count uint64) ([]uint64, error) {
	if err := s.whenNotPaused(); err != nil {
		return nil, err
	}
	if err := s.registry.Authorize(caller,
		roles.AnyRole(roles.Corporate),
		roles.KYCed(ErrNotKYCed),
		roles.NotBanned(ErrBanned),
	); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrZeroJobCount
	}
	if count > MaxJobListings {
		return nil, ErrTooManyJobs
	}

	stake, err := s.jobListingStake.Get()
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Mul(stake, new(big.Int).SetUint64(count))
	if err := s.deposit(caller, total); err != nil {
		return nil, err
	}
	ids, err := s.listingsService.Register(caller, count, stake)
	if err != nil {
		return nil, err
	}

	logger.Debug("job listings registered", "account", caller, "count", count, "stake", total)
	s.sctx.Emit("JobListingRegistered", caller, total)
	return ids, nil
}

// UnregisterJobListing releases the stake of the given listings.
func (s *Staker) UnregisterJobListing(caller udao.Address, ids []uint64) (*big.Int, error) {
	if err := s.registry.Authorize(caller, roles.AnyRole(roles.Corporate)); err != nil {
		return nil, err
	}
	total, err := s.listingsService.Unregister(caller, ids)
	if err != nil {
		return nil, err
	}
	if err := s.payout(caller, total); err != nil {
		return nil, err
	}

	logger.Debug("job listings unregistered", "account", caller, "ids", ids, "stake", total)
	s.sctx.Emit("JobListingUnregistered", caller, ids, total)
	return total, nil
}
