// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"sync"

	"github.com/bitmark-inc/paratii/fault"
)

// one-shot result of a single Starting phase
//
// every caller of Acquire during the phase waits on the same attempt
type attempt struct {
	done     chan struct{}
	once     sync.Once
	instance *Instance
	err      error

	// set under the manager lock when the ready signal is accepted
	signalled bool
}

func newAttempt() *attempt {
	return &attempt{
		done: make(chan struct{}),
	}
}

// resolve the attempt, returns false if it was already resolved
func (a *attempt) resolve(instance *Instance, err error) bool {
	resolved := false
	a.once.Do(func() {
		a.instance = instance
		a.err = err
		close(a.done)
		resolved = true
	})
	return resolved
}

// wait for the attempt or for the caller to give up
//
// giving up only abandons this wait, the attempt itself carries on
func (a *attempt) wait(ctx context.Context) (*Instance, error) {
	select {
	case <-a.done:
		return a.instance, a.err
	case <-ctx.Done():
		return nil, fault.Cancelled(ctx.Err())
	}
}
