// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the initial ledger state.
package genesis

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis describes the initial state.
type Genesis struct {
	Foundation []udao.Address `yaml:"foundation"`
	Backend    []udao.Address `yaml:"backend"`
	Roles      []RoleMembers  `yaml:"roles"`
	KYC        []udao.Address `yaml:"kyc"`
	Balances   []Balance      `yaml:"balances"`
	Contents   []Content      `yaml:"contents"`
	Rates      []Rate         `yaml:"rates"`
	Params     Params         `yaml:"params"`
}

// RoleMembers grants a role, by name, to accounts.
type RoleMembers struct {
	Role     string         `yaml:"role"`
	Accounts []udao.Address `yaml:"accounts"`
}

type Balance struct {
	Account udao.Address `yaml:"account"`
	Amount  *Amount      `yaml:"amount"`
}

type Content struct {
	ID        uint64       `yaml:"id"`
	Owner     udao.Address `yaml:"owner"`
	Coaching  bool         `yaml:"coaching"`
	Validated bool         `yaml:"validated"`
}

type Rate struct {
	Currency    string  `yaml:"currency"`
	Numerator   *Amount `yaml:"numerator"`
	Denominator *Amount `yaml:"denominator"`
}

// Params overrides the protocol defaults. They are applied by the first foundation
// account through the regular setters.
type Params struct {
	ValidatorLockAmount      *Amount       `yaml:"validatorLockAmount"`
	SuperValidatorLockAmount *Amount       `yaml:"superValidatorLockAmount"`
	JurorLockAmount          *Amount       `yaml:"jurorLockAmount"`
	JobListingStake          *Amount       `yaml:"jobListingStake"`
	VoteReward               *Amount       `yaml:"voteReward"`
	CoachingFee              *Amount       `yaml:"coachingFee"`
	PlatformTreasury         *udao.Address `yaml:"platformTreasury"`
}

func (p *Params) empty() bool {
	return *p == Params{}
}

// Load reads a genesis file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gen Genesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrapf(err, "parse genesis %s", path)
	}
	return &gen, nil
}

// Validate checks the genesis is complete enough to run.
func (g *Genesis) Validate() error {
	if len(g.Foundation) == 0 {
		return errors.New("at least one foundation account")
	}
	if len(g.Backend) == 0 {
		return errors.New("at least one backend account")
	}
	for _, b := range g.Balances {
		if b.Amount == nil || b.Amount.Big().Sign() < 1 {
			return errors.Errorf("%s: balance must be a non-zero integer", b.Account)
		}
	}
	for _, rm := range g.Roles {
		if _, err := roles.ParseRole(rm.Role); err != nil {
			return err
		}
	}
	for _, c := range g.Contents {
		if c.Owner.IsZero() {
			return errors.Errorf("content %d: owner must be set", c.ID)
		}
	}
	return nil
}

// Apply writes the genesis into an empty ledger as its first receipt. A ledger with
// receipts is left untouched and nil is returned.
func (g *Genesis) Apply(l *ledger.Ledger) (*tx.Receipt, error) {
	if l.Head() > 0 {
		logger.Debug("ledger already initialized", "head", l.Head())
		return nil, nil
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	receipt, _, err := l.Execute(udao.Address{}, "genesis", func(c *builtin.Contracts, _ udao.Address) (any, error) {
		return nil, g.build(c)
	})
	if err != nil {
		return nil, err
	}
	if receipt.Reverted {
		return nil, errors.Errorf("genesis reverted: %s", receipt.Reason)
	}
	logger.Info("genesis applied", "events", len(receipt.Events))
	return receipt, nil
}

func (g *Genesis) build(c *builtin.Contracts) error {
	for _, addr := range g.Foundation {
		if err := c.Roles.Grant(roles.Foundation, addr); err != nil {
			return err
		}
	}
	for _, addr := range g.Backend {
		if err := c.Roles.Grant(roles.Backend, addr); err != nil {
			return err
		}
	}
	for _, rm := range g.Roles {
		role, _ := roles.ParseRole(rm.Role)
		for _, addr := range rm.Accounts {
			if err := c.Roles.Grant(role, addr); err != nil {
				return err
			}
		}
	}
	for _, addr := range g.KYC {
		if err := c.Roles.SetKYCStatus(addr, true); err != nil {
			return err
		}
	}
	for _, b := range g.Balances {
		if err := c.Token.Issue(b.Account, b.Amount.Big()); err != nil {
			return err
		}
	}
	for _, content := range g.Contents {
		if err := c.Content.Register(content.Owner, content.ID, content.Coaching); err != nil {
			return err
		}
		if content.Validated {
			if err := c.Content.SetValidated(content.ID, true); err != nil {
				return err
			}
		}
	}
	for _, r := range g.Rates {
		if err := c.Oracle.Put(r.Currency, r.Numerator.Big(), r.Denominator.Big()); err != nil {
			return err
		}
	}
	return g.Params.apply(c, g.Foundation[0])
}

func (p *Params) apply(c *builtin.Contracts, foundation udao.Address) error {
	if p.empty() {
		return nil
	}
	for _, set := range []struct {
		value *Amount
		fn    func(udao.Address, *big.Int) error
	}{
		{p.ValidatorLockAmount, c.Staker.SetValidatorLockAmount},
		{p.SuperValidatorLockAmount, c.Staker.SetSuperValidatorLockAmount},
		{p.JurorLockAmount, c.Staker.SetJurorLockAmount},
		{p.JobListingStake, c.Staker.SetJobListingStake},
		{p.VoteReward, c.Staker.SetVoteReward},
		{p.CoachingFee, c.Treasury.SetCoachingFee},
	} {
		if set.value == nil {
			continue
		}
		if err := set.fn(foundation, set.value.Big()); err != nil {
			return err
		}
	}
	if p.PlatformTreasury != nil {
		return c.Staker.SetPlatformTreasuryAddress(foundation, *p.PlatformTreasury)
	}
	return nil
}
