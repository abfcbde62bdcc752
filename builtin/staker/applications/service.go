// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package applications keeps role applications and the stake bonded to them.
package applications

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/udao"
)

var (
	slotApplications = udao.BytesToBytes32([]byte("applications"))

	errNotPending = errors.New("application is not pending")
)

type key struct {
	account udao.Address
	roleID  uint8
}

func (k key) Bytes() []byte {
	return append(k.account.Bytes(), k.roleID)
}

type Service struct {
	applications *solidity.Mapping[key, *Application]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		applications: solidity.NewMapping[key, *Application](sctx, slotApplications),
	}
}

// IsNotPending reports whether err reports a missing pending application.
func IsNotPending(err error) bool {
	return errors.Is(err, errNotPending)
}

// Get returns the application of the account for the role id. It is never nil; an
// account that never applied gets StatusNone.
func (s *Service) Get(account udao.Address, roleID uint8) (*Application, error) {
	app, err := s.applications.Get(key{account, roleID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get application")
	}
	if app.Stake == nil {
		app.Stake = new(big.Int)
	}
	return app, nil
}

// Apply opens a pending application bonding stake. Stake left over from a decided
// application of the same role is carried into the new one.
func (s *Service) Apply(account udao.Address, roleID uint8, stake *big.Int, now uint64) (bool, error) {
	app, err := s.Get(account, roleID)
	if err != nil {
		return false, err
	}
	if app.IsPending() {
		return false, nil
	}
	app.Status = StatusPending
	app.Stake = new(big.Int).Add(app.Stake, stake)
	app.AppliedAt = now
	app.DecidedAt = 0
	return true, s.set(account, roleID, app)
}

// Approve moves a pending application to approved.
func (s *Service) Approve(account udao.Address, roleID uint8, now uint64) error {
	return s.decide(account, roleID, StatusApproved, now)
}

// Reject moves a pending application to rejected.
func (s *Service) Reject(account udao.Address, roleID uint8, now uint64) error {
	return s.decide(account, roleID, StatusRejected, now)
}

func (s *Service) decide(account udao.Address, roleID uint8, status Status, now uint64) error {
	app, err := s.Get(account, roleID)
	if err != nil {
		return err
	}
	if !app.IsPending() {
		return errNotPending
	}
	app.Status = status
	app.DecidedAt = now
	return s.set(account, roleID, app)
}

// Withdrawable returns the stake of the application that can be withdrawn at now.
func (s *Service) Withdrawable(account udao.Address, roleID uint8, now, cooldown uint64) (*big.Int, error) {
	app, err := s.Get(account, roleID)
	if err != nil {
		return nil, err
	}
	if at, ok := app.WithdrawableAt(cooldown); ok && at <= now {
		return app.Stake, nil
	}
	return new(big.Int), nil
}

// Withdraw releases the withdrawable stake and returns it.
func (s *Service) Withdraw(account udao.Address, roleID uint8, now, cooldown uint64) (*big.Int, error) {
	amount, err := s.Withdrawable(account, roleID, now, cooldown)
	if err != nil || amount.Sign() == 0 {
		return amount, err
	}
	app, err := s.Get(account, roleID)
	if err != nil {
		return nil, err
	}
	app.Stake = new(big.Int)
	return amount, s.set(account, roleID, app)
}

func (s *Service) set(account udao.Address, roleID uint8, app *Application) error {
	if err := s.applications.Set(key{account, roleID}, app); err != nil {
		return errors.Wrap(err, "failed to set application")
	}
	return nil
}
