// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU(t *testing.T) {
	_, err := NewLRU[string, int](0)
	assert.Error(t, err)

	c, err := NewLRU[string, int](2)
	require.NoError(t, err)

	loads := 0
	load := func(k string) (int, error) {
		loads++
		return len(k), nil
	}

	v, err := c.GetOrLoad("abc", load)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = c.GetOrLoad("abc", load)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, loads)

	c.Add("a", 1)
	c.Add("b", 2)
	_, ok := c.Get("abc")
	assert.False(t, ok, "evicted by size bound")
	assert.Equal(t, 2, c.Len())

	_, err = c.GetOrLoad("x", func(string) (int, error) { return 0, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	_, ok = c.Get("x")
	assert.False(t, ok, "failed loads are not cached")

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCacheStats(t *testing.T) {
	cs := &Stats{}
	cs.Hit()
	cs.Miss()
	changed, hit, miss := cs.Stats()
	assert.True(t, changed)
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)

	changed, _, _ = cs.Stats()
	assert.False(t, changed)

	cs.Hit()
	assert.Equal(t, int64(3), cs.Hit())
	changed, hit, miss = cs.Stats()
	assert.Equal(t, int64(3), hit)
	assert.Equal(t, int64(1), miss)
	assert.True(t, changed)
}
