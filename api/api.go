// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the ledger over HTTP: read views of the contracts, signed call
// submission, event queries and an event stream over websocket.
package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/udao-org/udao-ledger/api/accounts"
	"github.com/udao-org/udao-ledger/api/calls"
	"github.com/udao-org/udao-ledger/api/coachings"
	"github.com/udao-org/udao-ledger/api/contents"
	"github.com/udao-org/udao-ledger/api/events"
	"github.com/udao-org/udao-ledger/api/health"
	"github.com/udao-org/udao-ledger/api/middleware"
	"github.com/udao-org/udao-ledger/api/subscriptions"
	"github.com/udao-org/udao-ledger/api/validations"
	"github.com/udao-org/udao-ledger/api/vouchers"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/logdb"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	BacktraceLimit  uint64
	LogsLimit       uint64
	EnableMetrics   bool
	EnableReqLogger *atomic.Bool
	SlowQueries     time.Duration
	Log5xxErrors    bool
}

// New return api router. logDB may be nil, the events endpoint is then not served.
func New(l *ledger.Ledger, logDB *logdb.LogDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(l).
		Mount(router, "/accounts")
	validations.New(l).
		Mount(router, "/validations")
	contents.New(l).
		Mount(router, "/contents")
	coachings.New(l).
		Mount(router, "/coachings")
	calls.New(l).
		Mount(router, "/calls")
	vouchers.New(l).
		Mount(router, "/vouchers")
	if logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/events")
	}
	health.New(l, logDB).
		Mount(router, "/health")
	subs := subscriptions.New(l, origins, opts.BacktraceLimit)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLogger(logger, opts.EnableReqLogger, opts.SlowQueries, opts.Log5xxErrors)(handler)
	}

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
