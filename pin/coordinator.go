// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pin

import (
	"context"
	"sync"

	"github.com/bitmark-inc/logger"
	cid "github.com/ipfs/go-cid"

	"github.com/bitmark-inc/paratii/fault"
)

const (
	warningQueueSize = 100
)

// Coordinator - retries pin requests until they succeed
//
// there is no backoff and no limit on the number of attempts, a
// caller stops waiting by cancelling its context
type Coordinator struct {
	sync.Mutex

	log       *logger.L
	client    Client
	inflight  map[string]*workflow
	abandoned map[string]<-chan struct{}
	warnings  chan Warning
	hooks     []func(Warning)
	closed    bool

	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// all requests for one identifier
type workflow struct {
	id       cid.Cid
	author   string
	waiters  int
	cancel   context.CancelFunc
	previous <-chan struct{} // a cancelled workflow for the same id still winding down
	done     chan struct{}   // outcome available
	finished chan struct{}   // no attempt outstanding
	outcome  Outcome
	err      error
}

// NewCoordinator - create a coordinator issuing attempts through client
func NewCoordinator(client Client, log *logger.L) *Coordinator {
	if nil == log {
		log = logger.New("pin")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		log:       log,
		client:    client,
		inflight:  make(map[string]*workflow),
		abandoned: make(map[string]<-chan struct{}),
		warnings:  make(chan Warning, warningQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Warnings - every failed attempt, closed by Close
//
// the channel is buffered, warnings are dropped (and logged) when no
// one keeps up with it
func (c *Coordinator) Warnings() <-chan Warning {
	return c.warnings
}

// OnWarning - call f for every failed attempt
//
// f runs on the retry path and should return quickly
func (c *Coordinator) OnWarning(f func(Warning)) {
	c.Lock()
	defer c.Unlock()
	c.hooks = append(c.hooks, f)
}

// InFlight - number of identifiers currently being pinned
func (c *Coordinator) InFlight() int {
	c.Lock()
	defer c.Unlock()
	return len(c.inflight)
}

// PinAndWait - pin id and wait until a pinning peer holds it
//
// concurrent calls for the same identifier share one sequence of
// attempts and receive the same outcome.  The only error returned is
// a cancellation, from ctx or from Close
func (c *Coordinator) PinAndWait(ctx context.Context, id cid.Cid, author string) (Outcome, error) {
	if !id.Defined() {
		return Outcome{CID: id, Err: fault.ErrInvalidCID}, fault.ErrInvalidCID
	}
	key := id.KeyString()

	c.Lock()
	if c.closed {
		c.Unlock()
		return Outcome{CID: id, Err: fault.ErrCancelled}, fault.ErrCancelled
	}
	w, ok := c.inflight[key]
	if !ok {
		w = c.begin(key, id, author)
	}
	w.waiters += 1
	c.Unlock()

	select {
	case <-w.done:
		return w.outcome, w.err

	case <-ctx.Done():
		err := fault.Cancelled(ctx.Err())
		c.Lock()
		w.waiters -= 1
		if 0 == w.waiters {
			if c.inflight[key] == w {
				delete(c.inflight, key)
				c.abandoned[key] = w.finished
			}
			w.cancel()
		}
		c.Unlock()
		c.log.Infof("pin: %s  abandoned: %s", id, ctx.Err())
		return Outcome{CID: id, Err: err}, err
	}
}

// start a workflow, must be called with the lock held
func (c *Coordinator) begin(key string, id cid.Cid, author string) *workflow {
	ctx, cancel := context.WithCancel(c.ctx)
	w := &workflow{
		id:       id,
		author:   author,
		cancel:   cancel,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	if previous, ok := c.abandoned[key]; ok {
		w.previous = previous
	}
	c.inflight[key] = w

	c.running.Add(1)
	go c.run(ctx, key, w)
	return w
}

func (c *Coordinator) run(ctx context.Context, key string, w *workflow) {
	defer func() {
		close(w.finished)
		c.Lock()
		if c.abandoned[key] == w.finished {
			delete(c.abandoned, key)
		}
		c.Unlock()
		c.running.Done()
	}()

	if nil != w.previous {
		select {
		case <-w.previous:
		case <-ctx.Done():
			c.finish(key, w, Outcome{CID: w.id, Err: fault.ErrCancelled}, fault.Cancelled(ctx.Err()))
			return
		}
	}

	for n := 1; ; n += 1 {
		c.log.Debugf("pin: %s  attempt: %d", w.id, n)

		attempt := c.client.Pin(ctx, w.id, w.author)
		subscription := attempt.Subscribe()

		var outcome Outcome
		select {
		case o, ok := <-subscription.C:
			if !ok {
				o = Outcome{CID: w.id, Err: fault.ErrPinAttemptClosed}
			}
			outcome = o

		case <-ctx.Done():
			subscription.Close()
			attempt.Dispose()
			c.finish(key, w, Outcome{CID: w.id, Err: fault.ErrCancelled}, fault.Cancelled(ctx.Err()))
			return
		}

		// this attempt's listeners go before the next attempt starts
		subscription.Close()
		attempt.Dispose()

		if outcome.Pinned() {
			c.log.Infof("pin: %s  pinned after: %d attempts", w.id, n)
			c.finish(key, w, outcome, nil)
			return
		}
		c.warn(Warning{CID: w.id, Attempt: n, Cause: outcome.Err})
	}
}

func (c *Coordinator) finish(key string, w *workflow, outcome Outcome, err error) {
	c.Lock()
	if c.inflight[key] == w {
		delete(c.inflight, key)
	}
	c.Unlock()

	w.outcome = outcome
	w.err = err
	close(w.done)
}

func (c *Coordinator) warn(warning Warning) {
	c.log.Warnf("%s  retrying", warning)

	c.Lock()
	hooks := make([]func(Warning), len(c.hooks))
	copy(hooks, c.hooks)
	c.Unlock()

	select {
	case c.warnings <- warning:
	default:
		c.log.Debugf("warning queue full, dropped: %s", warning)
	}

	for _, f := range hooks {
		f(warning)
	}
}

// Close - cancel every workflow and wait for them to finish
func (c *Coordinator) Close() {
	c.Lock()
	if c.closed {
		c.Unlock()
		return
	}
	c.closed = true
	c.Unlock()

	c.cancel()
	c.running.Wait()
	close(c.warnings)
}
