// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/logdb"
)

const maxLag = 1000

type Status struct {
	Healthy bool   `json:"healthy"`
	Head    uint64 `json:"head"`
	Time    uint64 `json:"time"`
	// Indexed is the seq of the newest receipt whose events are searchable.
	Indexed *uint64 `json:"indexed,omitempty"`
}

type API struct {
	ledger *ledger.Ledger
	logDB  *logdb.LogDB
}

// New creates the health API. logDB may be nil when events are not indexed.
func New(l *ledger.Ledger, logDB *logdb.LogDB) *API {
	return &API{l, logDB}
}

func (h *API) handleGetHealth(w http.ResponseWriter, req *http.Request) error {
	status := &Status{
		Healthy: true,
		Head:    h.ledger.Head(),
		Time:    h.ledger.Now(),
	}
	if h.logDB != nil {
		seq, _, err := h.logDB.LastSeq(req.Context())
		if err != nil {
			return err
		}
		status.Indexed = &seq
		// receipts without events are not indexed, only a lag with events counts
		if seq < status.Head {
			lagging, err := h.lagging(seq, status.Head)
			if err != nil {
				return err
			}
			status.Healthy = !lagging
		}
	}

	w.Header().Set("Content-Type", utils.JSONContentType)
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	return utils.WriteJSON(w, status)
}

// lagging reports whether a receipt after seq up to head has events to index.
func (h *API) lagging(seq, head uint64) (bool, error) {
	if head-seq > maxLag {
		return true, nil
	}
	receipts, err := h.ledger.Receipts(seq+1, int(head-seq))
	if err != nil {
		return false, err
	}
	for _, r := range receipts {
		if len(r.Events) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
