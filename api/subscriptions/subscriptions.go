// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/api/utils"
	"github.com/udao-org/udao-ledger/co"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/metrics"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

const (
	readBatch  = 256
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 7 / 10
	writeWait  = 10 * time.Second
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricActiveCount = metrics.LazyLoadGaugeVec("api_active_websocket_count", []string{"subject"})
)

type Subscriptions struct {
	ledger         *ledger.Ledger
	backtraceLimit uint64
	upgrader       *websocket.Upgrader
	done           chan struct{}
	goes           co.Goes
}

// New creates the subscriptions API. A subscription may start at most backtraceLimit
// receipts behind the head.
func New(l *ledger.Ledger, allowedOrigins []string, backtraceLimit uint64) *Subscriptions {
	return &Subscriptions{
		ledger:         l,
		backtraceLimit: backtraceLimit,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// parsePos returns the seq after which events are streamed, the head if pos is empty.
func (s *Subscriptions) parsePos(pos string) (uint64, error) {
	head := s.ledger.Head()
	if pos == "" {
		return head, nil
	}
	seq, err := strconv.ParseUint(pos, 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "pos"))
	}
	if seq > head {
		return 0, utils.BadRequest(errors.New("pos: beyond the head"))
	}
	if head-seq > s.backtraceLimit {
		return 0, utils.Forbidden(errors.New("pos: backtrace limit exceeded"))
	}
	return seq, nil
}

func parseFilter(query url.Values) (*EventFilter, error) {
	filter := &EventFilter{Names: query["name"]}
	if addr := query.Get("address"); addr != "" {
		a, err := udao.ParseAddress(addr)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "address"))
		}
		filter.Address = &a
	}
	return filter, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	pos, err := s.parsePos(req.URL.Query().Get("pos"))
	if err != nil {
		return err
	}
	filter, err := parseFilter(req.URL.Query())
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	closed := make(chan struct{})
	s.goes.Go(func() { s.readPump(conn, closed) })
	s.goes.Go(func() { s.serve(conn, pos, filter, closed) })
	return nil
}

// serve runs one subscription and closes the connection when it ends.
func (s *Subscriptions) serve(conn *websocket.Conn, pos uint64, filter *EventFilter, closed <-chan struct{}) {
	defer conn.Close()

	metricActiveCount().AddWithLabel(1, map[string]string{"subject": "events"})
	defer metricActiveCount().AddWithLabel(-1, map[string]string{"subject": "events"})

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	if err := s.pipe(conn, pos, filter, closed); err != nil {
		logger.Debug("subscription closed", "err", err)
		msg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	}
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// readPump consumes the peer's frames, so pongs and the close frame are handled, and
// closes closed once the peer is gone.
func (s *Subscriptions) readPump(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read", "err", err)
			}
			return
		}
	}
}

// pipe writes the events of every receipt after pos until the peer leaves or the API
// is closed.
func (s *Subscriptions) pipe(conn *websocket.Conn, pos uint64, filter *EventFilter, closed <-chan struct{}) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		// take the channel before reading so a commit in between is not missed
		updated := s.ledger.Updated()
		receipts, err := s.ledger.Receipts(pos+1, readBatch)
		if err != nil {
			return err
		}
		for _, r := range receipts {
			for _, msg := range filter.messages(r) {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					return nil
				}
			}
			pos = r.Seq
		}
		if len(receipts) == readBatch {
			continue
		}

		select {
		case <-updated:
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-s.done:
			return nil
		}
	}
}

// Close closes every open subscription and waits for them to finish.
func (s *Subscriptions) Close() {
	close(s.done)
	s.goes.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("subscriptions_events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}

// EventFilter selects the streamed events. Every set field narrows the stream.
type EventFilter struct {
	Names   []string
	Address *udao.Address
}

func (f *EventFilter) match(ev *tx.Event) bool {
	if f.Address != nil && *f.Address != ev.Address {
		return false
	}
	if len(f.Names) == 0 {
		return true
	}
	for _, name := range f.Names {
		if name == ev.Name {
			return true
		}
	}
	return false
}

func (f *EventFilter) messages(r *tx.Receipt) []*EventMessage {
	var msgs []*EventMessage
	for i, ev := range r.Events {
		if f.match(ev) {
			msgs = append(msgs, convertEvent(r, i, ev))
		}
	}
	return msgs
}
