// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/udao"
)

var (
	logger = log.WithContext("pkg", "roles")

	slotMembers = udao.BytesToBytes32([]byte("members"))
	slotKYC     = udao.BytesToBytes32([]byte("kyc"))
	slotBanned  = udao.BytesToBytes32([]byte("banned"))
)

// Role tags, keccak256 of the role name.
var (
	Validator      = udao.Keccak256([]byte("VALIDATOR_ROLE"))
	SuperValidator = udao.Keccak256([]byte("SUPER_VALIDATOR_ROLE"))
	Juror          = udao.Keccak256([]byte("JUROR_ROLE"))
	Governance     = udao.Keccak256([]byte("GOVERNANCE_ROLE"))
	Corporate      = udao.Keccak256([]byte("CORPORATE_ROLE"))
	Backend        = udao.Keccak256([]byte("BACKEND_ROLE"))
	Foundation     = udao.Keccak256([]byte("FOUNDATION_ROLE"))
)

// All lists every known role tag.
var All = []udao.Bytes32{Validator, SuperValidator, Juror, Governance, Corporate, Backend, Foundation}

var names = map[udao.Bytes32]string{
	Validator:      "VALIDATOR_ROLE",
	SuperValidator: "SUPER_VALIDATOR_ROLE",
	Juror:          "JUROR_ROLE",
	Governance:     "GOVERNANCE_ROLE",
	Corporate:      "CORPORATE_ROLE",
	Backend:        "BACKEND_ROLE",
	Foundation:     "FOUNDATION_ROLE",
}

// Name returns the role name, or the hex tag for an unknown role.
func Name(role udao.Bytes32) string {
	if n, ok := names[role]; ok {
		return n
	}
	return role.String()
}

// ParseRole resolves a role name like "VALIDATOR_ROLE" or a hex tag.
func ParseRole(s string) (udao.Bytes32, error) {
	for tag, name := range names {
		if name == s {
			return tag, nil
		}
	}
	tag, err := udao.ParseBytes32(s)
	if err != nil {
		return udao.Bytes32{}, errors.Errorf("unknown role %q", s)
	}
	return tag, nil
}

type memberKey struct {
	role    udao.Bytes32
	account udao.Address
}

func (k memberKey) Bytes() []byte {
	return append(k.role.Bytes(), k.account.Bytes()...)
}

// Roles binder of the role registry: role membership plus the KYC and ban flags of every account.
type Roles struct {
	sctx    *solidity.Context
	members *solidity.Mapping[memberKey, bool]
	kyc     *solidity.Mapping[udao.Address, bool]
	banned  *solidity.Mapping[udao.Address, bool]
}

func New(sctx *solidity.Context) *Roles {
	return &Roles{
		sctx:    sctx,
		members: solidity.NewMapping[memberKey, bool](sctx, slotMembers),
		kyc:     solidity.NewMapping[udao.Address, bool](sctx, slotKYC),
		banned:  solidity.NewMapping[udao.Address, bool](sctx, slotBanned),
	}
}

//
// Getters - no state change
//

func (r *Roles) HasRole(role udao.Bytes32, account udao.Address) (bool, error) {
	ok, err := r.members.Get(memberKey{role, account})
	if err != nil {
		return false, errors.Wrap(err, "failed to get role membership")
	}
	return ok, nil
}

func (r *Roles) IsKYCed(account udao.Address) (bool, error) {
	ok, err := r.kyc.Get(account)
	if err != nil {
		return false, errors.Wrap(err, "failed to get kyc flag")
	}
	return ok, nil
}

func (r *Roles) IsBanned(account udao.Address) (bool, error) {
	ok, err := r.banned.Get(account)
	if err != nil {
		return false, errors.Wrap(err, "failed to get ban flag")
	}
	return ok, nil
}

// RolesOf returns the tags of every role the account holds.
func (r *Roles) RolesOf(account udao.Address) ([]udao.Bytes32, error) {
	var held []udao.Bytes32
	for _, role := range All {
		ok, err := r.HasRole(role, account)
		if err != nil {
			return nil, err
		}
		if ok {
			held = append(held, role)
		}
	}
	return held, nil
}

//
// Setters - state change
//

// SetKYC sets the KYC flag of the account. Caller must be backend or foundation.
func (r *Roles) SetKYC(caller, account udao.Address, status bool) error {
	if err := r.Authorize(caller, AnyRole(Backend, Foundation)); err != nil {
		return err
	}
	return r.SetKYCStatus(account, status)
}

// SetBan sets the ban flag of the account. Caller must be backend or foundation.
func (r *Roles) SetBan(caller, account udao.Address, status bool) error {
	if err := r.Authorize(caller, AnyRole(Backend, Foundation)); err != nil {
		return err
	}
	return r.SetBanStatus(account, status)
}

// GrantRole grants the role to the account. Caller must be backend or foundation.
func (r *Roles) GrantRole(caller udao.Address, role udao.Bytes32, account udao.Address) error {
	if err := r.Authorize(caller, AnyRole(Backend, Foundation)); err != nil {
		return err
	}
	return r.grant(role, account, caller)
}

// RevokeRole removes the role from the account. Caller must be backend or foundation.
func (r *Roles) RevokeRole(caller udao.Address, role udao.Bytes32, account udao.Address) error {
	if err := r.Authorize(caller, AnyRole(Backend, Foundation)); err != nil {
		return err
	}
	ok, err := r.HasRole(role, account)
	if err != nil || !ok {
		return err
	}
	r.members.Delete(memberKey{role, account})
	logger.Debug("role revoked", "role", Name(role), "account", account)
	r.sctx.Emit("RoleRevoked", Name(role), account, caller)
	return nil
}

//
// Native - no authorization, reached from other contracts and genesis
//

// Grant grants the role on behalf of the registry itself.
func (r *Roles) Grant(role udao.Bytes32, account udao.Address) error {
	return r.grant(role, account, r.sctx.Address())
}

// SetKYCStatus sets the KYC flag without an authorization check.
func (r *Roles) SetKYCStatus(account udao.Address, status bool) error {
	if err := r.kyc.Set(account, status); err != nil {
		return errors.Wrap(err, "failed to set kyc flag")
	}
	logger.Debug("kyc flag changed", "account", account, "kyced", status)
	r.sctx.Emit("KYCSet", account, status)
	return nil
}

// SetBanStatus sets the ban flag without an authorization check.
func (r *Roles) SetBanStatus(account udao.Address, status bool) error {
	if err := r.banned.Set(account, status); err != nil {
		return errors.Wrap(err, "failed to set ban flag")
	}
	logger.Debug("ban flag changed", "account", account, "banned", status)
	r.sctx.Emit("BanSet", account, status)
	return nil
}

func (r *Roles) grant(role udao.Bytes32, account, by udao.Address) error {
	ok, err := r.HasRole(role, account)
	if err != nil || ok {
		return err
	}
	if err := r.members.Set(memberKey{role, account}, true); err != nil {
		return errors.Wrap(err, "failed to grant role")
	}
	logger.Debug("role granted", "role", Name(role), "account", account)
	r.sctx.Emit("RoleGranted", Name(role), account, by)
	return nil
}
