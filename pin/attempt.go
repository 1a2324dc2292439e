// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pin

import (
	"sync"

	cid "github.com/ipfs/go-cid"

	"github.com/bitmark-inc/paratii/fault"
)

// signal names used on the wire and in logs
const (
	EventDone  = "pin:done"
	EventError = "pin:error"
)

// Attempt - emitter for the result of one pin request
//
// at most one terminal signal is delivered, later ones are ignored.
// Dispose detaches every subscription, after which the attempt is
// inert
type Attempt struct {
	sync.Mutex
	id            cid.Cid
	subscriptions map[*Subscription]struct{}
	result        *Outcome
	disposed      chan struct{}
	isDisposed    bool
}

// Subscription - a listener on an attempt
//
// C receives the outcome once, it is closed without a value if the
// attempt is disposed first
type Subscription struct {
	C       <-chan Outcome
	c       chan Outcome
	attempt *Attempt
}

// NewAttempt - create an emitter for a request to pin id
func NewAttempt(id cid.Cid) *Attempt {
	return &Attempt{
		id:            id,
		subscriptions: make(map[*Subscription]struct{}),
		disposed:      make(chan struct{}),
	}
}

// CID - identifier being pinned
func (a *Attempt) CID() cid.Cid {
	return a.id
}

// Subscribe - add a listener
func (a *Attempt) Subscribe() *Subscription {
	c := make(chan Outcome, 1)
	s := &Subscription{
		C:       c,
		c:       c,
		attempt: a,
	}

	a.Lock()
	defer a.Unlock()

	switch {
	case a.isDisposed:
		close(c)
	case nil != a.result:
		c <- *a.result
	default:
		a.subscriptions[s] = struct{}{}
	}
	return s
}

// Close - detach this listener
func (s *Subscription) Close() {
	a := s.attempt
	a.Lock()
	defer a.Unlock()
	delete(a.subscriptions, s)
}

// Listeners - number of attached listeners
func (a *Attempt) Listeners() int {
	a.Lock()
	defer a.Unlock()
	return len(a.subscriptions)
}

// Done - signal success, returns false if ignored
func (a *Attempt) Done(id cid.Cid) bool {
	return a.emit(Outcome{CID: id})
}

// Fail - signal failure, returns false if ignored
func (a *Attempt) Fail(id cid.Cid, err error) bool {
	if nil == err {
		err = fault.ErrPinRejected
	}
	return a.emit(Outcome{CID: id, Err: err})
}

func (a *Attempt) emit(o Outcome) bool {
	a.Lock()
	defer a.Unlock()

	if a.isDisposed || nil != a.result || !a.id.Equals(o.CID) {
		return false
	}
	a.result = &o

	// each channel has room for exactly this one value
	for s := range a.subscriptions {
		s.c <- o
	}
	return true
}

// Dispose - detach all listeners and release the attempt
func (a *Attempt) Dispose() {
	a.Lock()
	defer a.Unlock()

	if a.isDisposed {
		return
	}
	a.isDisposed = true
	for s := range a.subscriptions {
		if nil == a.result {
			close(s.c)
		}
		delete(a.subscriptions, s)
	}
	close(a.disposed)
}

// Disposed - closed when the attempt is disposed
func (a *Attempt) Disposed() <-chan struct{} {
	return a.disposed
}
