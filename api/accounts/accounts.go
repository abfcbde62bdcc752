// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/staker"
	"github.com/udao-org/udao-ledger/builtin/staker/applications"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/udao"
)

var roleIDs = []uint8{staker.RoleValidator, staker.RoleJuror, staker.RoleCorporate, staker.RoleSuperValidator}

type Accounts struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Accounts {
	return &Accounts{l}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	nonce, err := a.ledger.Nonce(addr)
	if err != nil {
		return err
	}
	acc := &Account{Address: addr, Nonce: nonce, Roles: []string{}}
	if err := a.ledger.View(func(c *builtin.Contracts) error {
		return fill(acc, c)
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, acc)
}

func fill(acc *Account, c *builtin.Contracts) (err error) {
	addr := acc.Address
	if acc.KYC, err = c.Roles.IsKYCed(addr); err != nil {
		return err
	}
	if acc.Banned, err = c.Roles.IsBanned(addr); err != nil {
		return err
	}
	held, err := c.Roles.RolesOf(addr)
	if err != nil {
		return err
	}
	for _, role := range held {
		acc.Roles = append(acc.Roles, roles.Name(role))
	}

	balance, err := c.Token.BalanceOf(addr)
	if err != nil {
		return err
	}
	vp, err := c.VP.BalanceOf(addr)
	if err != nil {
		return err
	}
	acc.Balance, acc.VotingPower = utils.Amount(balance), utils.Amount(vp)

	if acc.Governance, err = governance(addr, c.Staker); err != nil {
		return err
	}
	if acc.Staking, err = staking(addr, c.Staker); err != nil {
		return err
	}

	score, err := c.Validation.ValidatorScore(addr)
	if err != nil {
		return err
	}
	acc.Validator = &Validator{Score: score}

	earned, err := c.Treasury.InstructorBalance(addr)
	if err != nil {
		return err
	}
	acc.Instructor = &Instructor{Balance: utils.Amount(earned)}
	return nil
}

func governance(addr udao.Address, s *staker.Staker) (*Governance, error) {
	stake, err := s.GovernanceStake(addr)
	if err != nil {
		return nil, err
	}
	withdrawable, err := s.GovernanceWithdrawable(addr)
	if err != nil {
		return nil, err
	}
	locks, err := s.GovernanceLocks(addr)
	if err != nil {
		return nil, err
	}
	g := &Governance{
		Stake:        utils.Amount(stake),
		Withdrawable: utils.Amount(withdrawable),
		Locks:        make([]*Lock, 0, len(locks)),
	}
	for _, l := range locks {
		g.Locks = append(g.Locks, &Lock{
			Amount:      utils.Amount(l.Amount),
			VotingPower: utils.Amount(l.VotingPower),
			UnlockAt:    l.UnlockAt,
		})
	}
	return g, nil
}

func staking(addr udao.Address, s *staker.Staker) (*Staking, error) {
	st := &Staking{Applications: []*Application{}}
	for _, id := range roleIDs {
		app, err := s.Application(addr, id)
		if err != nil {
			return nil, err
		}
		if app == nil || app.Status == applications.StatusNone {
			continue
		}
		st.Applications = append(st.Applications, &Application{
			RoleID:    id,
			Status:    app.Status.String(),
			Stake:     utils.Amount(app.Stake),
			AppliedAt: app.AppliedAt,
			DecidedAt: app.DecidedAt,
		})
	}

	validator, err := s.WithdrawableValidatorStake(addr)
	if err != nil {
		return nil, err
	}
	juror, err := s.WithdrawableJurorStake(addr)
	if err != nil {
		return nil, err
	}
	listings, err := s.JobListings(addr)
	if err != nil {
		return nil, err
	}
	rewards, err := s.Rewards(addr)
	if err != nil {
		return nil, err
	}
	st.WithdrawableValidator = utils.Amount(validator)
	st.WithdrawableJuror = utils.Amount(juror)
	st.JobListings = append([]uint64{}, listings...)
	st.Rewards = utils.Amount(rewards)
	return st, nil
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("accounts_get_account").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
}
