// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contents

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/api/coachings"
	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/api/validations"
	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/udao"
)

var errNotFound = errors.New("content not found")

type Content struct {
	ID              uint64         `json:"id"`
	Owner           udao.Address   `json:"owner"`
	Validated       bool           `json:"validated"`
	CoachingEnabled bool           `json:"coachingEnabled"`
	Students        []udao.Address `json:"students"`
}

type Contents struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Contents {
	return &Contents{l}
}

// view runs fn for an existing content, responding 404 otherwise.
func (c *Contents) view(req *http.Request, fn func(contracts *builtin.Contracts, id uint64) error) error {
	id, err := utils.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	return c.ledger.View(func(contracts *builtin.Contracts) error {
		exists, err := contracts.Content.Exists(id)
		if err != nil {
			return err
		}
		if !exists {
			return utils.NotFound(errNotFound)
		}
		return fn(contracts, id)
	})
}

func (c *Contents) handleGetContent(w http.ResponseWriter, req *http.Request) error {
	var content *Content
	if err := c.view(req, func(contracts *builtin.Contracts, id uint64) error {
		item, err := contracts.Content.Get(id)
		if err != nil {
			return err
		}
		students, err := contracts.Treasury.StudentsOf(id)
		if err != nil {
			return err
		}
		content = &Content{
			ID:              id,
			Owner:           item.Owner,
			Validated:       item.Validated,
			CoachingEnabled: item.CoachingEnabled,
			Students:        append([]udao.Address{}, students...),
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, content)
}

func (c *Contents) handleGetValidations(w http.ResponseWriter, req *http.Request) error {
	list := []*validations.Validation{}
	if err := c.view(req, func(contracts *builtin.Contracts, id uint64) error {
		ids, err := contracts.Validation.RoundsOf(id)
		if err != nil {
			return err
		}
		for _, roundID := range ids {
			round, err := contracts.Validation.Round(roundID)
			if err != nil {
				return err
			}
			if round != nil {
				list = append(list, validations.Convert(roundID, round))
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, list)
}

func (c *Contents) handleGetCoachings(w http.ResponseWriter, req *http.Request) error {
	list := []*coachings.Coaching{}
	if err := c.view(req, func(contracts *builtin.Contracts, id uint64) error {
		ids, err := contracts.Treasury.CoachingsOf(id)
		if err != nil {
			return err
		}
		for _, coachingID := range ids {
			coaching, err := contracts.Treasury.Coaching(coachingID)
			if err != nil {
				return err
			}
			if coaching != nil {
				list = append(list, coachings.Convert(coachingID, coaching))
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, list)
}

func (c *Contents) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("contents_get_content").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetContent))
	sub.Path("/{id}/validations").
		Methods(http.MethodGet).
		Name("contents_get_validations").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetValidations))
	sub.Path("/{id}/coachings").
		Methods(http.MethodGet).
		Name("contents_get_coachings").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetCoachings))
}
