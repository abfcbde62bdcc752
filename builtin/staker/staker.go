// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker implements the stake ledger and the role application engine:
// governance stakes converted to voting power, validator/juror candidacy bonds
// approved by backend vouchers, corporate job listing stakes and vote rewards.
package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/builtin/staker/applications"
	"github.com/udao-org/udao-ledger/builtin/staker/governance"
	"github.com/udao-org/udao-ledger/builtin/staker/listings"
	"github.com/udao-org/udao-ledger/builtin/token"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

var (
	logger = log.WithContext("pkg", "staker")

	slotPaused   = udao.BytesToBytes32([]byte("paused"))
	slotTreasury = udao.BytesToBytes32([]byte("platform-treasury"))
	slotRewards  = udao.BytesToBytes32([]byte("vote-rewards"))
	slotRedeemed = udao.BytesToBytes32([]byte("redeemed-vouchers"))
)

// Registry is the role registry as seen by the staker: it authorizes callers and grants
// the roles of approved applications.
type Registry interface {
	roles.Authorizer
	Grant(role udao.Bytes32, account udao.Address) error
}

// Staker implements the native methods of the staking contract.
type Staker struct {
	sctx      *solidity.Context
	registry  Registry
	token     *token.Token
	vp        *token.Token
	blockTime uint64

	governanceService   *governance.Service
	applicationsService *applications.Service
	listingsService     *listings.Service

	validatorLockAmount      *solidity.ConfigVariable
	superValidatorLockAmount *solidity.ConfigVariable
	jurorLockAmount          *solidity.ConfigVariable
	jobListingStake          *solidity.ConfigVariable
	voteReward               *solidity.ConfigVariable
	cooldown                 *solidity.ConfigVariable

	paused          *solidity.Bool
	treasury        *solidity.Address
	defaultTreasury udao.Address
	rewards         *solidity.Mapping[udao.Address, *big.Int]
	redeemed        *solidity.Mapping[udao.Bytes32, bool]
}

// New create a new instance. Vote rewards are paid out of defaultTreasury until a
// platform treasury address is set.
func New(
	sctx *solidity.Context,
	registry Registry,
	udaoToken *token.Token,
	vpToken *token.Token,
	defaultTreasury udao.Address,
	blockTime uint64,
) *Staker {
	return &Staker{
		sctx:      sctx,
		registry:  registry,
		token:     udaoToken,
		vp:        vpToken,
		blockTime: blockTime,

		governanceService:   governance.New(sctx),
		applicationsService: applications.New(sctx),
		listingsService:     listings.New(sctx),

		validatorLockAmount:      solidity.NewConfigVariable(sctx, "validator-lock-amount", defaultValidatorLockAmount),
		superValidatorLockAmount: solidity.NewConfigVariable(sctx, "super-validator-lock-amount", defaultSuperValidatorLockAmount),
		jurorLockAmount:          solidity.NewConfigVariable(sctx, "juror-lock-amount", defaultJurorLockAmount),
		jobListingStake:          solidity.NewConfigVariable(sctx, "job-listing-stake", defaultJobListingStake),
		voteReward:               solidity.NewConfigVariable(sctx, "vote-reward", defaultVoteReward),
		cooldown:                 solidity.NewConfigVariable(sctx, "approved-stake-cooldown", defaultCooldown),

		paused:          solidity.NewBool(sctx, slotPaused),
		treasury:        solidity.NewAddress(sctx, slotTreasury),
		defaultTreasury: defaultTreasury,
		rewards:         solidity.NewMapping[udao.Address, *big.Int](sctx, slotRewards),
		redeemed:        solidity.NewMapping[udao.Bytes32, bool](sctx, slotRedeemed),
	}
}

//
// Getters - no state change
//

func (s *Staker) Address() udao.Address {
	return s.sctx.Address()
}

func (s *Staker) Paused() (bool, error) {
	return s.paused.Get()
}

func (s *Staker) ValidatorLockAmount() (*big.Int, error) {
	return s.validatorLockAmount.Get()
}

func (s *Staker) SuperValidatorLockAmount() (*big.Int, error) {
	return s.superValidatorLockAmount.Get()
}

func (s *Staker) JurorLockAmount() (*big.Int, error) {
	return s.jurorLockAmount.Get()
}

func (s *Staker) JobListingStake() (*big.Int, error) {
	return s.jobListingStake.Get()
}

func (s *Staker) VoteReward() (*big.Int, error) {
	return s.voteReward.Get()
}

// PlatformTreasury returns the account vote rewards are paid from.
func (s *Staker) PlatformTreasury() (udao.Address, error) {
	addr, err := s.treasury.Get()
	if err != nil {
		return udao.Address{}, err
	}
	if addr.IsZero() {
		return s.defaultTreasury, nil
	}
	return addr, nil
}

// GovernanceStake returns the amount the account holds in governance locks.
func (s *Staker) GovernanceStake(account udao.Address) (*big.Int, error) {
	return s.governanceService.Staked(account)
}

// GovernanceLocks lists the lock entries of the account.
func (s *Staker) GovernanceLocks(account udao.Address) ([]*governance.Lock, error) {
	return s.governanceService.Locks(account)
}

// GovernanceWithdrawable returns the governance stake unlocked at the current block time.
func (s *Staker) GovernanceWithdrawable(account udao.Address) (*big.Int, error) {
	return s.governanceService.Withdrawable(account, s.blockTime)
}

// Application returns the application of the account for the role id.
func (s *Staker) Application(account udao.Address, roleID uint8) (*applications.Application, error) {
	if roleID >= roleCount {
		return nil, ErrUndefinedRole
	}
	return s.applicationsService.Get(account, roleID)
}

// WithdrawableValidatorStake sums the withdrawable validator and super validator bonds.
func (s *Staker) WithdrawableValidatorStake(account udao.Address) (*big.Int, error) {
	return s.withdrawable(account, RoleValidator, RoleSuperValidator)
}

// WithdrawableJurorStake returns the withdrawable juror bond.
func (s *Staker) WithdrawableJurorStake(account udao.Address) (*big.Int, error) {
	return s.withdrawable(account, RoleJuror)
}

// JobListings returns the ids of the account's staked job listings.
func (s *Staker) JobListings(account udao.Address) ([]uint64, error) {
	return s.listingsService.Active(account)
}

// Rewards returns the vote rewards accrued by the account.
func (s *Staker) Rewards(account udao.Address) (*big.Int, error) {
	v, err := s.rewards.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rewards")
	}
	return v, nil
}

// VerifyRoleVoucher checks a role voucher is well formed, unexpired and signed by a
// backend account. It does not check whether the voucher was redeemed.
func (s *Staker) VerifyRoleVoucher(v *voucher.RoleVoucher) (*voucher.Claims, error) {
	return voucher.Verify(v, s.blockTime, func(signer udao.Address) (bool, error) {
		return s.registry.HasRole(roles.Backend, signer)
	})
}

// IsRedeemed reports whether the role voucher with the given id was consumed.
func (s *Staker) IsRedeemed(id udao.Bytes32) (bool, error) {
	return s.redeemed.Get(id)
}

func (s *Staker) withdrawable(account udao.Address, roleIDs ...uint8) (*big.Int, error) {
	cooldown, err := s.cooldown.GetUint64()
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, id := range roleIDs {
		w, err := s.applicationsService.Withdrawable(account, id, s.blockTime, cooldown)
		if err != nil {
			return nil, err
		}
		total.Add(total, w)
	}
	return total, nil
}

func (s *Staker) whenNotPaused() error {
	paused, err := s.paused.Get()
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	return nil
}

// deposit pulls amount from the account into the staker, spending its allowance.
func (s *Staker) deposit(account udao.Address, amount *big.Int) error {
	return s.token.TransferFrom(s.Address(), account, s.Address(), amount)
}

func (s *Staker) payout(account udao.Address, amount *big.Int) error {
	return s.token.Move(s.Address(), account, amount)
}
