// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/logdb"
)

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, logsLimit uint64) *Events {
	return &Events{
		db,
		logsLimit,
	}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Options != nil && filter.Options.Offset > math.MaxInt64 {
		return utils.BadRequest(fmt.Errorf("options.offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	if r := filter.Range; r != nil {
		if (r.From != nil && *r.From > math.MaxInt64) || (r.To != nil && *r.To > math.MaxInt64) {
			return utils.BadRequest(errors.New("range: time out of bounds"))
		}
		if r.From != nil && r.To != nil && *r.From > *r.To {
			return utils.BadRequest(errors.New("range: to must be greater than or equal to from"))
		}
	}
	switch filter.Order {
	case "":
		filter.Order = logdb.ASC
	case logdb.ASC, logdb.DESC:
	default:
		return utils.BadRequest(fmt.Errorf("order: unknown order %q", filter.Order))
	}
	if filter.Options == nil {
		// one more than the limit tells whether the result was cut
		filter.Options = &Options{Limit: e.limit + 1}
	}

	events, err := e.db.FilterEvents(req.Context(), convertFilter(&filter))
	if err != nil {
		return err
	}
	if len(events) > int(e.limit) {
		return utils.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}

	fes := make([]*FilteredEvent, len(events))
	for i, ev := range events {
		fes[i] = convertEvent(ev)
	}
	return utils.WriteJSON(w, fes)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("events_filter").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
