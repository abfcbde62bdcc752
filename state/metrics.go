// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/udao-org/udao-ledger/metrics"

var (
	metricStorageCounter = metrics.LazyLoadCounterVec("state_storage_count", []string{"type"})
	metricCacheHitRate   = metrics.LazyLoadGauge("state_cache_hit_rate_permille")
)
