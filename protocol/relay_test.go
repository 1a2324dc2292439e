// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/paratii/protocol"
)

type recorder struct {
	sync.Mutex
	events map[peerlib.ID][]string
}

func newRecorder() *recorder {
	return &recorder{
		events: make(map[peerlib.ID][]string),
	}
}

func (r *recorder) Update(event protocol.PeerEvent) {
	r.Lock()
	r.events[event.Peer] = append(r.events[event.Peer], event.Command)
	r.Unlock()
}

func (r *recorder) commands(peer peerlib.ID) []string {
	r.Lock()
	defer r.Unlock()
	return append([]string(nil), r.events[peer]...)
}

func TestRelayPerPeerOrder(t *testing.T) {
	relay := protocol.NewRelay(logger.New("testing"))
	r := newRecorder()
	cancel := relay.Register(r)
	defer cancel()

	peers := []peerlib.ID{peerlib.ID("peer-one"), peerlib.ID("peer-two"), peerlib.ID("peer-three")}

	const count = 200
	expected := make([]string, count)
	for i := 0; i < count; i += 1 {
		expected[i] = fmt.Sprintf("c%d", i)
	}

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p peerlib.ID) {
			defer wg.Done()
			for _, c := range expected {
				relay.Publish(protocol.PeerEvent{
					Peer:    p,
					Kind:    protocol.ProtocolCommand,
					Command: c,
				})
			}
		}(p)
	}
	wg.Wait()
	relay.Wait()

	for _, p := range peers {
		assert.Equal(t, expected, r.commands(p), "order for: %s", p)
	}
}

func TestRelayPublishDoesNotBlock(t *testing.T) {
	relay := protocol.NewRelay(logger.New("testing"))

	release := make(chan struct{})
	cancel := relay.Register(protocol.ObserverFunc(func(protocol.PeerEvent) {
		<-release
	}))
	defer cancel()

	published := make(chan struct{})
	go func() {
		for i := 0; i < 100; i += 1 {
			relay.Publish(protocol.PeerEvent{Peer: peerlib.ID("slow"), Kind: protocol.ProtocolCommand})
		}
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow observer")
	}

	close(release)
	relay.Wait()
}

func TestRelayRegisterCancel(t *testing.T) {
	relay := protocol.NewRelay(logger.New("testing"))
	r := newRecorder()

	cancel := relay.Register(r)
	assert.Equal(t, 1, relay.Observers(), "observers")

	relay.Publish(protocol.PeerEvent{Peer: peerlib.ID("p"), Command: "first"})
	relay.Wait()

	cancel()
	cancel()
	assert.Equal(t, 0, relay.Observers(), "observers after cancel")

	relay.Publish(protocol.PeerEvent{Peer: peerlib.ID("p"), Command: "second"})
	relay.Wait()

	assert.Equal(t, []string{"first"}, r.commands(peerlib.ID("p")), "events")
}

func TestRelayObserverPanic(t *testing.T) {
	relay := protocol.NewRelay(logger.New("testing"))
	r := newRecorder()

	relay.Register(protocol.ObserverFunc(func(e protocol.PeerEvent) {
		if "bad" == e.Command {
			panic("observer failure")
		}
	}))
	relay.Register(r)

	relay.Publish(protocol.PeerEvent{Peer: peerlib.ID("p"), Command: "bad"})
	relay.Publish(protocol.PeerEvent{Peer: peerlib.ID("p"), Command: "good"})
	relay.Wait()

	assert.Equal(t, []string{"bad", "good"}, r.commands(peerlib.ID("p")), "events")
}

func TestRelayWaitWhilePublishing(t *testing.T) {
	relay := protocol.NewRelay(logger.New("testing"))
	r := newRecorder()
	cancel := relay.Register(r)
	defer cancel()

	peers := []peerlib.ID{peerlib.ID("peer-one"), peerlib.ID("peer-two")}

	const count = 300
	done := make(chan struct{})
	var publishers sync.WaitGroup
	for _, p := range peers {
		publishers.Add(1)
		go func(p peerlib.ID) {
			defer publishers.Done()
			for i := 0; i < count; i += 1 {
				relay.Publish(protocol.PeerEvent{Peer: p, Command: fmt.Sprintf("c%d", i)})
				if 0 == i%50 {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}

	waiters := make(chan struct{})
	go func() {
		defer close(waiters)
		for {
			select {
			case <-done:
				return
			default:
				relay.Wait()
			}
		}
	}()

	publishers.Wait()
	relay.Wait()
	close(done)
	<-waiters

	for _, p := range peers {
		assert.Equal(t, count, len(r.commands(p)), "delivered to: %s", p)
	}
}
