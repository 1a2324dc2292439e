// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus_test

import (
	"testing"

	"github.com/bitmark-inc/paratii/messagebus"
)

func TestQueue(t *testing.T) {

	items := []messagebus.Message{
		{From: "p1", Item: "c1"},
		{From: "p2", Item: "c2"},
		{From: "p1", Item: "c3"},
	}

	q := messagebus.New(10)
	for _, item := range items {
		if !q.Send(item.From, item.Item) {
			t.Fatalf("send refused: %v", item)
		}
	}

	queue := q.Chan()
	for _, item := range items {
		received := <-queue
		if received != item {
			t.Errorf("actual: %v  expected: %v", received, item)
		}
	}
}

func TestClose(t *testing.T) {

	q := messagebus.New(0)
	q.Send("p1", 1)
	q.Close()
	q.Close()

	if q.Send("p1", 2) {
		t.Error("send accepted after close")
	}

	received, ok := <-q.Chan()
	if !ok || 1 != received.Item {
		t.Errorf("pending item lost: %v", received)
	}
	if _, ok := <-q.Chan(); ok {
		t.Error("channel still open")
	}
}
