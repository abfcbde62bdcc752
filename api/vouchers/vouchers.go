// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vouchers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

const (
	KindRole     = "role"
	KindCoaching = "coaching"
)

// Request carries a voucher of the given kind.
type Request struct {
	Kind    string          `json:"kind"`
	Voucher json.RawMessage `json:"voucher"`
}

// Verification tells whether a voucher would be accepted by its redeeming method at
// the current time. Error is set when it would not.
type Verification struct {
	Valid    bool               `json:"valid"`
	ID       *udao.Bytes32      `json:"id,omitempty"`
	Signer   *udao.Address      `json:"signer,omitempty"`
	Redeemer *udao.Address      `json:"redeemer,omitempty"`
	Redeemed bool               `json:"redeemed"`
	Error    *utils.RevertError `json:"error,omitempty"`
}

type Vouchers struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Vouchers {
	return &Vouchers{l}
}

type verifier func(c *builtin.Contracts) (*voucher.Claims, func(udao.Bytes32) (bool, error), error)

func parse(req *Request) (verifier, error) {
	switch req.Kind {
	case KindRole:
		var v voucher.RoleVoucher
		if err := json.Unmarshal(req.Voucher, &v); err != nil {
			return nil, err
		}
		return func(c *builtin.Contracts) (*voucher.Claims, func(udao.Bytes32) (bool, error), error) {
			claims, err := c.Staker.VerifyRoleVoucher(&v)
			return claims, c.Staker.IsRedeemed, err
		}, nil
	case KindCoaching:
		var v voucher.CoachingVoucher
		if err := json.Unmarshal(req.Voucher, &v); err != nil {
			return nil, err
		}
		return func(c *builtin.Contracts) (*voucher.Claims, func(udao.Bytes32) (bool, error), error) {
			claims, err := c.Treasury.VerifyCoachingVoucher(&v)
			return claims, c.Treasury.IsRedeemed, err
		}, nil
	default:
		return nil, errors.Errorf("unknown voucher kind %q", req.Kind)
	}
}

func (v *Vouchers) handleVerify(w http.ResponseWriter, req *http.Request) error {
	var body Request
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	verify, err := parse(&body)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "voucher"))
	}

	result := &Verification{}
	if err := v.ledger.View(func(c *builtin.Contracts) error {
		claims, isRedeemed, err := verify(c)
		if err != nil {
			var revert reverts.Revert
			if !errors.As(err, &revert) {
				return err
			}
			result.Error = &utils.RevertError{Kind: revert.Kind().String(), Message: revert.Error()}
			return nil
		}
		result.ID, result.Signer, result.Redeemer = &claims.ID, &claims.Signer, &claims.Redeemer
		if result.Redeemed, err = isRedeemed(claims.ID); err != nil {
			return err
		}
		if result.Redeemed {
			result.Error = &utils.RevertError{Kind: voucher.ErrRedeemed.Kind().String(), Message: voucher.ErrRedeemed.Error()}
		} else {
			result.Valid = true
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, result)
}

func (v *Vouchers) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/verify").
		Methods(http.MethodPost).
		Name("vouchers_verify").
		HandlerFunc(utils.WrapHandlerFunc(v.handleVerify))
}
