// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validations

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/builtin/validation"
	"github.com/udao-org/udao-ledger/ledger"
)

type Validations struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Validations {
	return &Validations{l}
}

func (v *Validations) handleGetValidation(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	var round *validation.Round
	if err := v.ledger.View(func(c *builtin.Contracts) (err error) {
		round, err = c.Validation.Round(id)
		return
	}); err != nil {
		return err
	}
	if round == nil {
		return utils.NotFound(errors.New("validation not found"))
	}
	return utils.WriteJSON(w, Convert(id, round))
}

func (v *Validations) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("validations_get_validation").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidation))
}
