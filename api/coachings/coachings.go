// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package coachings

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/builtin/treasury"
	"github.com/udao-org/udao-ledger/ledger"
)

type Coachings struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Coachings {
	return &Coachings{l}
}

func (c *Coachings) handleGetCoaching(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	var coaching *treasury.Coaching
	if err := c.ledger.View(func(contracts *builtin.Contracts) (err error) {
		coaching, err = contracts.Treasury.Coaching(id)
		return
	}); err != nil {
		return err
	}
	if coaching == nil {
		return utils.NotFound(errors.New("coaching not found"))
	}
	return utils.WriteJSON(w, Convert(id, coaching))
}

func (c *Coachings) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("coachings_get_coaching").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetCoaching))
}
