// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"fmt"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/udao"
)

// Checker answers the registry questions every gated operation asks.
type Checker interface {
	HasRole(role udao.Bytes32, account udao.Address) (bool, error)
	IsKYCed(account udao.Address) (bool, error)
	IsBanned(account udao.Address) (bool, error)
}

// Capability is one requirement on the caller. It returns a revert when the
// caller does not satisfy it.
type Capability func(c Checker, caller udao.Address) error

// Authorizer checks capabilities in order, the first failing one decides the error.
type Authorizer interface {
	Checker
	Authorize(caller udao.Address, caps ...Capability) error
}

var _ Authorizer = (*Roles)(nil)

// MissingRoleError is returned when the caller holds none of the required roles.
type MissingRoleError struct {
	Account udao.Address
	Role    udao.Bytes32
}

func (e *MissingRoleError) Error() string {
	return fmt.Sprintf("AccessControl: account %s is missing role %s", e.Account, Name(e.Role))
}

func (e *MissingRoleError) Kind() reverts.Kind {
	return reverts.Authorization
}

// Authorize implements Authorizer.
func (r *Roles) Authorize(caller udao.Address, caps ...Capability) error {
	for _, c := range caps {
		if err := c(r, caller); err != nil {
			return err
		}
	}
	return nil
}

// AnyRole requires the caller to hold at least one of roles. The error names the first.
func AnyRole(roles ...udao.Bytes32) Capability {
	return func(c Checker, caller udao.Address) error {
		for _, role := range roles {
			ok, err := c.HasRole(role, caller)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
		missing := &MissingRoleError{Account: caller}
		if len(roles) > 0 {
			missing.Role = roles[0]
		}
		return missing
	}
}

// KYCed requires the caller to be KYC verified, failing with notKYCed otherwise.
func KYCed(notKYCed error) Capability {
	return func(c Checker, caller udao.Address) error {
		ok, err := c.IsKYCed(caller)
		if err != nil {
			return err
		}
		if !ok {
			return notKYCed
		}
		return nil
	}
}

// NotBanned requires the caller not to be banned, failing with banned otherwise.
func NotBanned(banned error) Capability {
	return func(c Checker, caller udao.Address) error {
		ok, err := c.IsBanned(caller)
		if err != nil {
			return err
		}
		if ok {
			return banned
		}
		return nil
	}
}

// Account applies caps to another account than the caller, e.g. the instructor of a purchase.
func Account(account udao.Address, caps ...Capability) Capability {
	return func(c Checker, _ udao.Address) error {
		for _, check := range caps {
			if err := check(c, account); err != nil {
				return err
			}
		}
		return nil
	}
}
