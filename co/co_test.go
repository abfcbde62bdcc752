// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoes(t *testing.T) {
	var goes Goes
	var n atomic.Int32
	for range 10 {
		goes.Go(func() { n.Add(1) })
	}

	select {
	case <-goes.Done():
	case <-time.After(time.Second):
		t.Fatal("goroutines did not finish")
	}
	assert.Equal(t, int32(10), n.Load())
}

func TestSignal(t *testing.T) {
	var sig Signal

	w1 := sig.Wait()
	w2 := sig.Wait()

	select {
	case <-w1:
		t.Fatal("must not fire before broadcast")
	default:
	}

	sig.Broadcast()
	<-w1
	<-w2

	w3 := sig.Wait()
	select {
	case <-w3:
		t.Fatal("a new wait must block until the next broadcast")
	default:
	}

	// broadcast without waiters is a no-op
	sig.Broadcast()
	sig.Broadcast()
}
