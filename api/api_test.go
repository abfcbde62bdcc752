// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/api/accounts"
	"github.com/udao-org/udao-ledger/api/calls"
	"github.com/udao-org/udao-ledger/api/coachings"
	"github.com/udao-org/udao-ledger/api/events"
	"github.com/udao-org/udao-ledger/api/health"
	"github.com/udao-org/udao-ledger/api/subscriptions"
	"github.com/udao-org/udao-ledger/api/validations"
	"github.com/udao-org/udao-ledger/api/vouchers"
	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/genesis"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/logdb"
	"github.com/udao-org/udao-ledger/lvldb"
	"github.com/udao-org/udao-ledger/metrics"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/voucher"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

const now = 1_700_000_000

type testServer struct {
	*httptest.Server
	ledger *ledger.Ledger
	nonces map[int]uint64
	// next voucher nonce
	vouchers uint64
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	ldb, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })

	mock := clock.NewMock()
	mock.Set(time.Unix(now, 0))
	l, err := ledger.New(db, ledger.Options{Clock: mock, LogDB: ldb})
	require.NoError(t, err)
	_, err = genesis.NewDevnet().Apply(l)
	require.NoError(t, err)

	handler, closeSubs := New(l, ldb, Options{
		AllowedOrigins: "*",
		BacktraceLimit: 100,
		LogsLimit:      10,
		EnableMetrics:  true,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeSubs()
		ts.Close()
	})
	return &testServer{Server: ts, ledger: l, nonces: map[int]uint64{}}
}

func (ts *testServer) get(t *testing.T, path string, out any) int {
	res, err := http.Get(ts.URL + path) //#nosec G107
	require.NoError(t, err)
	return decode(t, res, out)
}

func (ts *testServer) post(t *testing.T, path string, body any, out any) int {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(t, err)
	return decode(t, res, out)
}

func decode(t *testing.T, res *http.Response, out any) int {
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if out != nil && res.StatusCode < http.StatusInternalServerError {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return res.StatusCode
}

// call signs and submits a call of the dev account with index acc.
func (ts *testServer) call(t *testing.T, acc int, method string, args any) *calls.Result {
	data, err := json.Marshal(args)
	require.NoError(t, err)
	call := &tx.Call{Method: method, Args: data, Nonce: ts.nonces[acc]}
	require.NoError(t, call.Sign(genesis.DevAccounts()[acc].PrivateKey))

	var result calls.Result
	code := ts.post(t, "/calls", call, &result)
	require.Equal(t, http.StatusOK, code)
	ts.nonces[acc]++
	return &result
}

func (ts *testServer) coachingVoucher(t *testing.T, buyer int) *voucher.CoachingVoucher {
	accs := genesis.DevAccounts()
	v := &voucher.CoachingVoucher{
		ContentID:  0,
		Price:      big.NewInt(5),
		Currency:   "USD",
		Refundable: true,
		Redeemer:   accs[buyer].Address,
		ValidUntil: now + 3600,
		Nonce:      ts.vouchers,
	}
	ts.vouchers++
	require.NoError(t, voucher.Sign(v, accs[1].PrivateKey))
	return v
}

func TestAccounts(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()

	var acc accounts.Account
	require.Equal(t, http.StatusOK, ts.get(t, "/accounts/"+accs[0].Address.String(), &acc))
	assert.Equal(t, accs[0].Address, acc.Address)
	assert.True(t, acc.KYC)
	assert.False(t, acc.Banned)
	assert.Equal(t, []string{"FOUNDATION_ROLE"}, acc.Roles)
	assert.Equal(t, "1000000000000000000000000", (*big.Int)(acc.Balance).String())
	assert.Equal(t, uint64(0), acc.Nonce)
	assert.Empty(t, acc.Staking.Applications)

	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/accounts/0x1234", nil))
}

func TestCalls(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()

	result := ts.call(t, 3, "Token.transfer", map[string]string{"to": accs[4].Address.String(), "amount": "7"})
	assert.False(t, result.Receipt.Reverted)
	assert.Len(t, result.Receipt.Events.Filter("Transfer"), 1)

	var receipt tx.Receipt
	require.Equal(t, http.StatusOK, ts.get(t, "/calls/"+result.Receipt.ID.String(), &receipt))
	assert.Equal(t, result.Receipt.Seq, receipt.Seq)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/calls/0x"+strings.Repeat("00", 32), nil))
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/calls/nope", nil))

	// reverted calls get a receipt
	result = ts.call(t, 3, "Token.mint", map[string]string{"to": accs[3].Address.String(), "amount": "1"})
	assert.True(t, result.Receipt.Reverted)
	assert.Equal(t, "authorization", result.Receipt.Kind)

	var acc accounts.Account
	ts.get(t, "/accounts/"+accs[3].Address.String(), &acc)
	assert.Equal(t, uint64(2), acc.Nonce)

	// rejected calls do not
	stale := &tx.Call{Method: "Token.transfer", Args: json.RawMessage(`{}`), Nonce: 0}
	require.NoError(t, stale.Sign(accs[3].PrivateKey))
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/calls", stale, nil))

	unknown := &tx.Call{Method: "Nope.nope", Args: json.RawMessage(`{}`), Nonce: 2}
	require.NoError(t, unknown.Sign(accs[3].PrivateKey))
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/calls", unknown, nil))

	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/calls", map[string]any{"bogus": 1}, nil))
}

func TestCoachingFlow(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()

	ts.call(t, 3, "Token.approve", map[string]string{"spender": builtin.Treasury.Address.String(), "amount": "1000"})
	v := ts.coachingVoucher(t, 3)

	var verification vouchers.Verification
	require.Equal(t, http.StatusOK, ts.post(t, "/vouchers/verify", &vouchers.Request{Kind: vouchers.KindCoaching, Voucher: mustJSON(t, v)}, &verification))
	assert.True(t, verification.Valid)
	assert.Equal(t, accs[1].Address, *verification.Signer)

	result := ts.call(t, 3, "Treasury.buyCoaching", map[string]any{"voucher": v})
	require.False(t, result.Receipt.Reverted, result.Receipt.Reason)
	assert.Equal(t, float64(0), result.Output)

	require.Equal(t, http.StatusOK, ts.post(t, "/vouchers/verify", &vouchers.Request{Kind: vouchers.KindCoaching, Voucher: mustJSON(t, v)}, &verification))
	assert.False(t, verification.Valid)
	assert.True(t, verification.Redeemed)
	assert.Equal(t, voucher.ErrRedeemed.Error(), verification.Error.Message)

	var coaching coachings.Coaching
	require.Equal(t, http.StatusOK, ts.get(t, "/coachings/0", &coaching))
	assert.Equal(t, accs[3].Address, coaching.Buyer)
	assert.Equal(t, accs[2].Address, coaching.Coach)
	assert.Equal(t, "10", (*big.Int)(coaching.Price).String())
	assert.Equal(t, "active", coaching.Status)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/coachings/1", nil))

	var list []*coachings.Coaching
	require.Equal(t, http.StatusOK, ts.get(t, "/contents/0/coachings", &list))
	assert.Len(t, list, 1)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/contents/9/coachings", nil))

	// a refund by a non coach reverts
	result = ts.call(t, 3, "Treasury.refund", map[string]any{"id": 0})
	assert.True(t, result.Receipt.Reverted)

	var fes []*events.FilteredEvent
	require.Equal(t, http.StatusOK, ts.post(t, "/events", &events.EventFilter{Names: []string{"CoachingBought"}}, &fes))
	require.Len(t, fes, 1)
	assert.Equal(t, "Treasury", fes[0].Contract)
	assert.Equal(t, accs[3].Address, fes[0].Meta.Caller)
}

func TestValidations(t *testing.T) {
	ts := newTestServer(t)

	result := ts.call(t, 1, "Validation.createValidation", map[string]any{"contentId": 0, "requiredScore": 60})
	require.False(t, result.Receipt.Reverted, result.Receipt.Reason)

	var v validations.Validation
	require.Equal(t, http.StatusOK, ts.get(t, "/validations/0", &v))
	assert.Equal(t, uint64(0), v.ContentID)
	assert.Equal(t, uint64(60), v.RequiredScore)
	assert.Equal(t, "open", v.Status)
	assert.Empty(t, v.Assignments)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/validations/5", nil))
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/validations/x", nil))

	var list []*validations.Validation
	require.Equal(t, http.StatusOK, ts.get(t, "/contents/0/validations", &list))
	assert.Len(t, list, 1)
}

func TestEventsLimit(t *testing.T) {
	ts := newTestServer(t)

	// the devnet genesis emits more events than the limit
	assert.Equal(t, http.StatusForbidden, ts.post(t, "/events", &events.EventFilter{}, nil))
	assert.Equal(t, http.StatusForbidden, ts.post(t, "/events", &events.EventFilter{Options: &events.Options{Limit: 11}}, nil))

	var fes []*events.FilteredEvent
	require.Equal(t, http.StatusOK, ts.post(t, "/events", &events.EventFilter{Options: &events.Options{Limit: 10}}, &fes))
	assert.Len(t, fes, 10)

	from, to := uint64(2), uint64(1)
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/events", &events.EventFilter{Range: &events.Range{From: &from, To: &to}}, nil))
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/events", map[string]any{"order": "sideways"}, nil))
}

func TestSubscription(t *testing.T) {
	ts := newTestServer(t)

	u := url.URL{
		Scheme:   "ws",
		Host:     strings.TrimPrefix(ts.URL, "http://"),
		Path:     "/subscriptions/events",
		RawQuery: "pos=0&name=Transfer&address=" + builtin.Token.Address.String(),
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// backlog from the genesis receipt
	var msg subscriptions.EventMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Transfer", msg.Name)
	assert.Equal(t, "Token", msg.Contract)
	assert.Equal(t, uint64(1), msg.Meta.Seq)

	// drain the rest of the genesis mints, then expect a live one
	accs := genesis.DevAccounts()
	ts.call(t, 3, "Token.transfer", map[string]string{"to": accs[4].Address.String(), "amount": "7"})
	for {
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Meta.Seq > 1 {
			break
		}
	}
	assert.Equal(t, uint64(2), msg.Meta.Seq)
	assert.Equal(t, accs[3].Address, msg.Meta.Caller)

	u.RawQuery = "pos=1000"
	_, resp, err = websocket.DefaultDialer.Dial(u.String(), nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	var status health.Status
	require.Equal(t, http.StatusOK, ts.get(t, "/health", &status))
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(1), status.Head)
	assert.Equal(t, uint64(1), *status.Indexed)

	ts.get(t, "/accounts/0x1234", nil)
	ts.get(t, "/coachings/0", nil)

	rec := httptest.NewRecorder()
	metrics.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(rec.Body)
	require.NoError(t, err)

	family, ok := families["udao_ledger_api_request_count"]
	require.True(t, ok)
	seen := map[string]bool{}
	for _, m := range family.GetMetric() {
		labels := map[string]string{}
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		seen[labels["name"]+" "+labels["code"]] = true
	}
	assert.True(t, seen["health 200"])
	assert.True(t, seen["accounts_get_account 400"])
	assert.True(t, seen["coachings_get_coaching 404"])
}

func TestVerifyMalformed(t *testing.T) {
	ts := newTestServer(t)

	unsigned := json.RawMessage(`{"redeemer":"0x0000000000000000000000000000000000000001","roleId":0,"validUntil":1}`)
	var verification vouchers.Verification
	require.Equal(t, http.StatusOK, ts.post(t, "/vouchers/verify", &vouchers.Request{Kind: vouchers.KindRole, Voucher: unsigned}, &verification))
	assert.False(t, verification.Valid)
	assert.Nil(t, verification.ID)
	assert.Equal(t, "voucher", verification.Error.Kind)
	assert.Equal(t, voucher.ErrMalformed.Error(), verification.Error.Message)

	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/vouchers/verify", &vouchers.Request{Kind: "gift"}, nil))
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
