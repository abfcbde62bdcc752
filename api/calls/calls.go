// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package calls

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

// Result is the response to a submitted call.
type Result struct {
	Receipt *tx.Receipt `json:"receipt"`
	Output  any         `json:"output,omitempty"`
}

type Calls struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Calls {
	return &Calls{l}
}

func (c *Calls) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	var call tx.Call
	if err := utils.ParseJSON(req.Body, &call); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	receipt, out, err := c.ledger.Submit(&call)
	if err != nil {
		if errors.Is(err, ledger.ErrKnownCall) {
			return utils.HTTPError(err, http.StatusConflict)
		}
		if ledger.IsBadCall(err) {
			return utils.BadRequest(err)
		}
		return err
	}
	return utils.WriteJSON(w, &Result{receipt, out})
}

func (c *Calls) handleGetReceipt(w http.ResponseWriter, req *http.Request) error {
	id, err := udao.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	receipt, err := c.ledger.ReceiptByID(id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return utils.NotFound(errors.New("receipt not found"))
		}
		return err
	}
	return utils.WriteJSON(w, receipt)
}

func (c *Calls) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("calls_submit").
		HandlerFunc(utils.WrapHandlerFunc(c.handleSubmit))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("calls_get_receipt").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetReceipt))
}
