// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"sync"

	"github.com/bitmark-inc/logger"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
)

// Relay - delivers events to observers without blocking the sender
//
// each peer has its own mailbox drained by a goroutine that exits
// once the mailbox is empty, so events from one peer arrive in order
// while different peers proceed independently
type Relay struct {
	sync.Mutex
	log       *logger.L
	nextID    int
	observers map[int]Observer
	mailboxes map[peerlib.ID][]PeerEvent
	idle      *sync.Cond // broadcast when the last mailbox empties
}

// NewRelay - create an empty relay
func NewRelay(log *logger.L) *Relay {
	r := &Relay{
		log:       log,
		observers: make(map[int]Observer),
		mailboxes: make(map[peerlib.ID][]PeerEvent),
	}
	r.idle = sync.NewCond(&r.Mutex)
	return r
}

// Register - add an observer, the returned function removes it
func (r *Relay) Register(o Observer) func() {
	r.Lock()
	id := r.nextID
	r.nextID += 1
	r.observers[id] = o
	r.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.Lock()
			delete(r.observers, id)
			r.Unlock()
		})
	}
}

// Observers - number of registered observers
func (r *Relay) Observers() int {
	r.Lock()
	defer r.Unlock()
	return len(r.observers)
}

// Publish - queue an event for delivery, never blocks
func (r *Relay) Publish(event PeerEvent) {
	r.Lock()
	queue, running := r.mailboxes[event.Peer]
	r.mailboxes[event.Peer] = append(queue, event)
	if !running {
		go r.drain(event.Peer)
	}
	r.Unlock()
}

// Wait - block until every mailbox is empty
//
// events published while waiting are included
func (r *Relay) Wait() {
	r.Lock()
	defer r.Unlock()
	for len(r.mailboxes) > 0 {
		r.idle.Wait()
	}
}

func (r *Relay) drain(peer peerlib.ID) {
	for {
		r.Lock()
		queue := r.mailboxes[peer]
		if 0 == len(queue) {
			delete(r.mailboxes, peer)
			if 0 == len(r.mailboxes) {
				r.idle.Broadcast()
			}
			r.Unlock()
			return
		}
		event := queue[0]
		queue[0] = PeerEvent{}
		r.mailboxes[peer] = queue[1:]

		observers := make([]Observer, 0, len(r.observers))
		for _, o := range r.observers {
			observers = append(observers, o)
		}
		r.Unlock()

		for _, o := range observers {
			r.deliver(o, event)
		}
	}
}

// a panicking observer must not kill the mailbox
func (r *Relay) deliver(o Observer, event PeerEvent) {
	defer func() {
		if e := recover(); nil != e {
			r.log.Errorf("observer panic: %v  event: %s", e, event)
		}
	}()
	o.Update(event)
}
