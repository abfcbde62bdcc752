// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/holiman/uint256"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

func init() {
	initRolesMethods()
	initTokenMethods()
	initContentMethods()
	initOracleMethods()
	initStakerMethods()
	initValidationMethods()
	initTreasuryMethods()
}

type accountFlag struct {
	Account udao.Address `json:"account"`
	Status  bool         `json:"status"`
}

// roleTag decodes a role name or a 0x-hex tag.
type roleTag udao.Bytes32

func (r *roleTag) UnmarshalText(text []byte) error {
	tag, err := roles.ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = roleTag(tag)
	return nil
}

type roleGrant struct {
	Role    roleTag      `json:"role"`
	Account udao.Address `json:"account"`
}

func initRolesMethods() {
	define("Roles.setKYC", func(c *Contracts, caller udao.Address, args *accountFlag) (any, error) {
		return nil, c.Roles.SetKYC(caller, args.Account, args.Status)
	})
	define("Roles.setBan", func(c *Contracts, caller udao.Address, args *accountFlag) (any, error) {
		return nil, c.Roles.SetBan(caller, args.Account, args.Status)
	})
	define("Roles.grantRole", func(c *Contracts, caller udao.Address, args *roleGrant) (any, error) {
		return nil, c.Roles.GrantRole(caller, udao.Bytes32(args.Role), args.Account)
	})
	define("Roles.revokeRole", func(c *Contracts, caller udao.Address, args *roleGrant) (any, error) {
		return nil, c.Roles.RevokeRole(caller, udao.Bytes32(args.Role), args.Account)
	})
}

func initTokenMethods() {
	type transfer struct {
		From   udao.Address `json:"from"`
		To     udao.Address `json:"to"`
		Amount *uint256.Int `json:"amount"`
	}
	type approve struct {
		Spender udao.Address `json:"spender"`
		Amount  *uint256.Int `json:"amount"`
	}
	define("Token.transfer", func(c *Contracts, caller udao.Address, args *transfer) (any, error) {
		return nil, c.Token.Transfer(caller, args.To, amount(args.Amount))
	})
	define("Token.approve", func(c *Contracts, caller udao.Address, args *approve) (any, error) {
		return nil, c.Token.Approve(caller, args.Spender, amount(args.Amount))
	})
	define("Token.transferFrom", func(c *Contracts, caller udao.Address, args *transfer) (any, error) {
		return nil, c.Token.TransferFrom(caller, args.From, args.To, amount(args.Amount))
	})
	define("Token.mint", func(c *Contracts, caller udao.Address, args *transfer) (any, error) {
		return nil, c.Token.Mint(caller, args.To, amount(args.Amount))
	})
}

func initContentMethods() {
	type mint struct {
		Owner           udao.Address `json:"owner"`
		ID              uint64       `json:"id"`
		CoachingEnabled bool         `json:"coachingEnabled"`
	}
	type coaching struct {
		ID      uint64 `json:"id"`
		Enabled bool   `json:"enabled"`
	}
	define("Content.mint", func(c *Contracts, caller udao.Address, args *mint) (any, error) {
		return nil, c.Content.Mint(caller, args.Owner, args.ID, args.CoachingEnabled)
	})
	define("Content.setCoachingEnabled", func(c *Contracts, caller udao.Address, args *coaching) (any, error) {
		return nil, c.Content.SetCoachingEnabled(caller, args.ID, args.Enabled)
	})
}

func initOracleMethods() {
	type rate struct {
		Currency    string       `json:"currency"`
		Numerator   *uint256.Int `json:"numerator"`
		Denominator *uint256.Int `json:"denominator"`
	}
	define("Oracle.setRate", func(c *Contracts, caller udao.Address, args *rate) (any, error) {
		return nil, c.Oracle.SetRate(caller, args.Currency, amount(args.Numerator), amount(args.Denominator))
	})
}

func initStakerMethods() {
	type stake struct {
		Amount   *uint256.Int `json:"amount"`
		LockDays uint64       `json:"lockDays"`
	}
	type reject struct {
		Applicant udao.Address `json:"applicant"`
		RoleID    uint8        `json:"roleId"`
	}
	type register struct {
		Count uint64 `json:"count"`
	}
	type unregister struct {
		IDs []uint64 `json:"ids"`
	}
	type voter struct {
		Voter udao.Address `json:"voter"`
	}
	type address struct {
		Address udao.Address `json:"address"`
	}
	type approval struct {
		Voucher voucher.RoleVoucher `json:"voucher"`
	}

	define("Staker.stakeForGovernance", func(c *Contracts, caller udao.Address, args *stake) (any, error) {
		return c.Staker.StakeForGovernance(caller, amount(args.Amount), args.LockDays)
	})
	define("Staker.withdrawGovernanceStake", func(c *Contracts, caller udao.Address, args *stake) (any, error) {
		return nil, c.Staker.WithdrawGovernanceStake(caller, amount(args.Amount))
	})
	define("Staker.applyForValidator", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return nil, c.Staker.ApplyForValidator(caller)
	})
	define("Staker.applyForJuror", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return nil, c.Staker.ApplyForJuror(caller)
	})
	define("Staker.applyForSuperValidator", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return nil, c.Staker.ApplyForSuperValidator(caller)
	})
	define("Staker.getApproved", func(c *Contracts, caller udao.Address, args *approval) (any, error) {
		return nil, c.Staker.GetApproved(caller, &args.Voucher)
	})
	define("Staker.rejectApplication", func(c *Contracts, caller udao.Address, args *reject) (any, error) {
		return nil, c.Staker.RejectApplication(caller, args.Applicant, args.RoleID)
	})
	define("Staker.withdrawValidatorStake", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return c.Staker.WithdrawValidatorStake(caller)
	})
	define("Staker.withdrawJurorStake", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return c.Staker.WithdrawJurorStake(caller)
	})
	define("Staker.registerJobListing", func(c *Contracts, caller udao.Address, args *register) (any, error) {
		return c.Staker.RegisterJobListing(caller, args.Count)
	})
	define("Staker.unregisterJobListing", func(c *Contracts, caller udao.Address, args *unregister) (any, error) {
		return c.Staker.UnregisterJobListing(caller, args.IDs)
	})
	define("Staker.addVoteReward", func(c *Contracts, caller udao.Address, args *voter) (any, error) {
		return c.Staker.AddVoteReward(caller, args.Voter)
	})
	define("Staker.withdrawRewards", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return c.Staker.WithdrawRewards(caller)
	})
	define("Staker.setPlatformTreasuryAddress", func(c *Contracts, caller udao.Address, args *address) (any, error) {
		return nil, c.Staker.SetPlatformTreasuryAddress(caller, args.Address)
	})
	define("Staker.pause", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return nil, c.Staker.Pause(caller)
	})
	define("Staker.unpause", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return nil, c.Staker.Unpause(caller)
	})

	type setting struct {
		Amount *uint256.Int `json:"amount"`
	}
	for name, set := range map[string]func(c *Contracts, caller udao.Address, args *setting) error{
		"Staker.setValidatorLockAmount": func(c *Contracts, caller udao.Address, args *setting) error {
			return c.Staker.SetValidatorLockAmount(caller, amount(args.Amount))
		},
		"Staker.setSuperValidatorLockAmount": func(c *Contracts, caller udao.Address, args *setting) error {
			return c.Staker.SetSuperValidatorLockAmount(caller, amount(args.Amount))
		},
		"Staker.setJurorLockAmount": func(c *Contracts, caller udao.Address, args *setting) error {
			return c.Staker.SetJurorLockAmount(caller, amount(args.Amount))
		},
		"Staker.setJobListingStake": func(c *Contracts, caller udao.Address, args *setting) error {
			return c.Staker.SetJobListingStake(caller, amount(args.Amount))
		},
		"Staker.setVoteReward": func(c *Contracts, caller udao.Address, args *setting) error {
			return c.Staker.SetVoteReward(caller, amount(args.Amount))
		},
	} {
		define(name, func(c *Contracts, caller udao.Address, args *setting) (any, error) {
			return nil, set(c, caller, args)
		})
	}
}

type roundID struct {
	ID uint64 `json:"id"`
}

func initValidationMethods() {
	type create struct {
		ContentID     uint64 `json:"contentId"`
		RequiredScore uint64 `json:"requiredScore"`
	}
	type send struct {
		ID     uint64 `json:"id"`
		Result bool   `json:"result"`
	}
	define("Validation.createValidation", func(c *Contracts, caller udao.Address, args *create) (any, error) {
		return c.Validation.CreateValidation(caller, args.ContentID, args.RequiredScore)
	})
	define("Validation.assignValidation", func(c *Contracts, caller udao.Address, args *roundID) (any, error) {
		return nil, c.Validation.AssignValidation(caller, args.ID)
	})
	define("Validation.sendValidation", func(c *Contracts, caller udao.Address, args *send) (any, error) {
		return nil, c.Validation.SendValidation(caller, args.ID, args.Result)
	})
	define("Validation.finalizeValidation", func(c *Contracts, caller udao.Address, args *roundID) (any, error) {
		return c.Validation.FinalizeValidation(caller, args.ID)
	})
}

func initTreasuryMethods() {
	type buy struct {
		Voucher voucher.CoachingVoucher `json:"voucher"`
	}
	type fee struct {
		Fee *uint256.Int `json:"fee"`
	}
	define("Treasury.buyCoaching", func(c *Contracts, caller udao.Address, args *buy) (any, error) {
		return c.Treasury.BuyCoaching(caller, &args.Voucher)
	})
	define("Treasury.finalizeCoaching", func(c *Contracts, caller udao.Address, args *roundID) (any, error) {
		return nil, c.Treasury.FinalizeCoaching(caller, args.ID)
	})
	define("Treasury.delayDeadline", func(c *Contracts, caller udao.Address, args *roundID) (any, error) {
		return c.Treasury.DelayDeadline(caller, args.ID)
	})
	define("Treasury.refund", func(c *Contracts, caller udao.Address, args *roundID) (any, error) {
		return nil, c.Treasury.Refund(caller, args.ID)
	})
	define("Treasury.forcedPayment", func(c *Contracts, caller udao.Address, args *roundID) (any, error) {
		return nil, c.Treasury.ForcedPayment(caller, args.ID)
	})
	define("Treasury.forcedRefundAdmin", func(c *Contracts, caller udao.Address, args *roundID) (any, error) {
		return nil, c.Treasury.ForcedRefundAdmin(caller, args.ID)
	})
	define("Treasury.withdrawInstructor", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return c.Treasury.WithdrawInstructor(caller)
	})
	define("Treasury.withdrawFoundation", func(c *Contracts, caller udao.Address, _ *none) (any, error) {
		return c.Treasury.WithdrawFoundation(caller)
	})
	define("Treasury.setCoachingFee", func(c *Contracts, caller udao.Address, args *fee) (any, error) {
		return nil, c.Treasury.SetCoachingFee(caller, amount(args.Fee))
	})
}
