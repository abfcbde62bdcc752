// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/udao-org/udao-ledger/metrics"

var (
	metricCallCount    = metrics.LazyLoadCounterVec("ledger_calls_count", []string{"method", "status"})
	metricCallDuration = metrics.LazyLoadHistogramVec("ledger_call_duration_ms", []string{"method"}, metrics.BucketCallDuration)
	metricReceiptSeq   = metrics.LazyLoadGauge("ledger_receipt_seq")
)
