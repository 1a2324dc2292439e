// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"sync"
)

// DefaultQueueSize - buffered items before Send has to wait
const DefaultQueueSize = 1000

// Message - an item together with the peer it came from
type Message struct {
	From string
	Item interface{}
}

// Queue - buffered FIFO of messages
type Queue struct {
	sync.RWMutex
	queue  chan Message
	closed bool
}

// New - create a queue holding up to size messages
func New(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		queue: make(chan Message, size),
	}
}

// Send - queue an item, returns false once the queue is closed
func (q *Queue) Send(from string, item interface{}) bool {
	q.RLock()
	defer q.RUnlock()
	if q.closed {
		return false
	}
	q.queue <- Message{
		From: from,
		Item: item,
	}
	return true
}

// Chan - channel to read from, closed by Close after pending items
func (q *Queue) Chan() <-chan Message {
	return q.queue
}

// Close - refuse further items
func (q *Queue) Close() {
	q.Lock()
	defer q.Unlock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
}
