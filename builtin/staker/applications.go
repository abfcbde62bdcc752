// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/staker/applications"
	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

// ApplyForValidator opens a validator application bonding the validator lock amount.
func (s *Staker) ApplyForValidator(caller udao.Address) error {
	return s.apply(caller, RoleValidator, s.validatorLockAmount.Get,
		notHolding(roles.Validator, ErrAlreadyValidator),
	)
}

// ApplyForJuror opens a juror application bonding the juror lock amount.
func (s *Staker) ApplyForJuror(caller udao.Address) error {
	return s.apply(caller, RoleJuror, s.jurorLockAmount.Get,
		notHolding(roles.Juror, ErrAlreadyJuror),
	)
}

// ApplyForSuperValidator opens a super validator application. Only validators may apply.
func (s *Staker) ApplyForSuperValidator(caller udao.Address) error {
	return s.apply(caller, RoleSuperValidator, s.superValidatorLockAmount.Get,
		roles.AnyRole(roles.Validator),
		notHolding(roles.SuperValidator, ErrAlreadySuperValidator),
	)
}

func notHolding(role udao.Bytes32, holding error) roles.Capability {
	return func(c roles.Checker, caller udao.Address) error {
		ok, err := c.HasRole(role, caller)
		if err != nil {
			return err
		}
		if ok {
			return holding
		}
		return nil
	}
}

func (s *Staker) apply(caller udao.Address, roleID uint8, lockAmount func() (*big.Int, error), caps ...roles.Capability) error {
	if err := s.whenNotPaused(); err != nil {
		return err
	}
	if err := s.registry.Authorize(caller, roles.KYCed(ErrNotKYCed), roles.NotBanned(ErrBanned)); err != nil {
		return err
	}
	member, err := s.governanceService.IsMember(caller)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotGovernanceMember
	}
	if err := s.registry.Authorize(caller, caps...); err != nil {
		var missing *roles.MissingRoleError
		if errors.As(err, &missing) {
			return ErrNotValidator
		}
		return err
	}

	stake, err := lockAmount()
	if err != nil {
		return err
	}
	opened, err := s.applicationsService.Apply(caller, roleID, stake, s.blockTime)
	if err != nil {
		return err
	}
	if !opened {
		return ErrPendingApplication
	}
	if err := s.deposit(caller, stake); err != nil {
		return err
	}

	logger.Debug("role applied", "roleId", roleID, "account", caller, "stake", stake)
	s.sctx.Emit("RoleApplied", roleID, caller, stake)
	return nil
}

// GetApproved redeems a backend signed role voucher: the pending application of the
// caller is approved and the role granted. Corporate approvals need no application.
func (s *Staker) GetApproved(caller udao.Address, v *voucher.RoleVoucher) error {
	claims, err := s.VerifyRoleVoucher(v)
	if err != nil {
		return err
	}
	redeemed, err := s.redeemed.Get(claims.ID)
	if err != nil {
		return errors.Wrap(err, "failed to get voucher state")
	}
	if redeemed {
		return voucher.ErrRedeemed
	}
	if claims.Redeemer != caller {
		return voucher.ErrWrongRedeemer
	}
	if v.RoleID >= roleCount {
		return ErrUndefinedRole
	}
	if err := s.registry.Authorize(caller, roles.KYCed(ErrNotKYCed), roles.NotBanned(ErrBanned)); err != nil {
		return err
	}

	err = s.applicationsService.Approve(caller, v.RoleID, s.blockTime)
	switch {
	case applications.IsNotPending(err):
		if v.RoleID != RoleCorporate {
			return ErrRoleNotFound
		}
	case err != nil:
		return err
	}

	if err := s.redeemed.Set(claims.ID, true); err != nil {
		return errors.Wrap(err, "failed to redeem voucher")
	}
	if err := s.registry.Grant(roleTags[v.RoleID], caller); err != nil {
		return err
	}

	logger.Debug("role approved", "roleId", v.RoleID, "account", caller)
	s.sctx.Emit("RoleApproved", v.RoleID, caller)
	return nil
}

// RejectApplication rejects a pending application. Caller must be backend. The bonded
// stake becomes withdrawable at once.
func (s *Staker) RejectApplication(caller, applicant udao.Address, roleID uint8) error {
	if err := s.registry.Authorize(caller, roles.AnyRole(roles.Backend)); err != nil {
		return err
	}
	if roleID >= roleCount {
		return ErrRoleNotFound
	}
	if err := s.applicationsService.Reject(applicant, roleID, s.blockTime); err != nil {
		if applications.IsNotPending(err) {
			return ErrRoleNotFound
		}
		return err
	}

	logger.Debug("role rejected", "roleId", roleID, "account", applicant)
	s.sctx.Emit("RoleRejected", roleID, applicant)
	return nil
}

// WithdrawValidatorStake pays out the withdrawable validator and super validator bonds.
func (s *Staker) WithdrawValidatorStake(caller udao.Address) (*big.Int, error) {
	return s.withdrawStake(caller, "ValidatorStakeWithdrawn", RoleValidator, RoleSuperValidator)
}

// WithdrawJurorStake pays out the withdrawable juror bond.
func (s *Staker) WithdrawJurorStake(caller udao.Address) (*big.Int, error) {
	return s.withdrawStake(caller, "JurorStakeWithdrawn", RoleJuror)
}

func (s *Staker) withdrawStake(caller udao.Address, event string, roleIDs ...uint8) (*big.Int, error) {
	cooldown, err := s.cooldown.GetUint64()
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, id := range roleIDs {
		amount, err := s.applicationsService.Withdraw(caller, id, s.blockTime, cooldown)
		if err != nil {
			return nil, err
		}
		total.Add(total, amount)
	}
	if total.Sign() == 0 {
		return nil, ErrNoWithdrawal
	}
	if err := s.payout(caller, total); err != nil {
		return nil, err
	}
	s.sctx.Emit(event, caller, total)
	return total, nil
}
