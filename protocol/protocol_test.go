// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol_test

import (
	"context"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/libp2p/go-libp2p-core/peerstore"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/node"
	"github.com/bitmark-inc/paratii/protocol"
)

func newInstance(t *testing.T, identity string) *node.Instance {
	instance, err := node.NewInstance(context.Background(), node.Configuration{
		Swarm:    []string{"/ip4/127.0.0.1/tcp/0"},
		Identity: identity,
	}, logger.New("testing"))
	if nil != err {
		t.Fatalf("new instance error: %s", err)
	}
	return instance
}

// b learns the addresses of a
func introduce(a *node.Instance, b *node.Instance) {
	b.Host.Peerstore().AddAddrs(a.ID, a.Host.Addrs(), peerstore.PermanentAddrTTL)
}

func receive(t *testing.T, events <-chan protocol.PeerEvent) protocol.PeerEvent {
	select {
	case e := <-events:
		return e
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return protocol.PeerEvent{}
}

func TestCommandRelayedWithIdentity(t *testing.T) {
	sender := newInstance(t, "0xsender")
	defer sender.Close()
	receiver := newInstance(t, "0xreceiver")
	defer receiver.Close()
	introduce(receiver, sender)

	senderBinder := protocol.NewBinder(logger.New("testing"))
	receiverBinder := protocol.NewBinder(logger.New("testing"))

	assert.Nil(t, senderBinder.Bind(sender), "bind sender")
	defer senderBinder.Unbind()
	assert.Nil(t, receiverBinder.Bind(receiver), "bind receiver")
	defer receiverBinder.Unbind()

	events := make(chan protocol.PeerEvent, 10)
	cancel := receiverBinder.Register(protocol.ObserverFunc(func(e protocol.PeerEvent) {
		events <- e
	}))
	defer cancel()

	p, err := senderBinder.Protocol()
	assert.Nil(t, err, "protocol")

	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()

	for _, name := range []string{"first", "second", "third"} {
		err = p.SendCommand(ctx, receiver.ID, name, "a", "b")
		assert.Nil(t, err, "send error")
	}

	for _, name := range []string{"first", "second", "third"} {
		e := receive(t, events)
		assert.Equal(t, protocol.ProtocolCommand, e.Kind, "kind")
		assert.Equal(t, sender.ID, e.Peer, "peer")
		assert.Equal(t, "0xsender", e.Identity, "identity tag")
		assert.Equal(t, name, e.Command, "command")
		assert.Equal(t, []string{"a", "b"}, e.Args, "args")
	}
}

func TestWantAnsweredWithBlock(t *testing.T) {
	holder := newInstance(t, "0xholder")
	defer holder.Close()
	seeker := newInstance(t, "")
	defer seeker.Close()
	introduce(holder, seeker)
	introduce(seeker, holder)

	holderBinder := protocol.NewBinder(logger.New("testing"))
	seekerBinder := protocol.NewBinder(logger.New("testing"))
	assert.Nil(t, holderBinder.Bind(holder), "bind holder")
	defer holderBinder.Unbind()
	assert.Nil(t, seekerBinder.Bind(seeker), "bind seeker")
	defer seekerBinder.Unbind()

	block := []byte(`{"description":"a video"}`)
	id, err := holder.Blocks.Put(block)
	assert.Nil(t, err, "put error")

	p, err := seekerBinder.Protocol()
	assert.Nil(t, err, "protocol")
	assert.Equal(t, protocol.NoIdentity, p.Identity(), "fallback identity")

	blocks := make(chan protocol.PeerEvent, 1)
	cancel := p.Register(protocol.ObserverFunc(func(e protocol.PeerEvent) {
		if protocol.BlockReceived == e.Kind {
			blocks <- e
		}
	}))
	defer cancel()

	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	assert.Nil(t, p.Want(ctx, holder.ID, id), "want error")

	e := receive(t, blocks)
	assert.True(t, id.Equals(e.CID), "cid")
	assert.Equal(t, holder.ID, e.Peer, "peer")

	stored, err := seeker.Blocks.Get(id)
	assert.Nil(t, err, "stored block")
	assert.Equal(t, block, stored, "block data")
}

func TestBinderLifecycle(t *testing.T) {
	instance := newInstance(t, "0x1")
	defer instance.Close()

	b := protocol.NewBinder(logger.New("testing"))

	_, err := b.Protocol()
	assert.Equal(t, fault.ErrProtocolNotStarted, err, "before bind")

	assert.Nil(t, b.Bind(instance), "bind")
	assert.Equal(t, fault.ErrAlreadyInitialised, b.Bind(instance), "second bind")

	p, err := b.Protocol()
	assert.Nil(t, err, "after bind")
	assert.Equal(t, "0x1", p.Identity(), "identity")

	b.Unbind()
	b.Unbind()
	_, err = b.Protocol()
	assert.Equal(t, fault.ErrProtocolNotStarted, err, "after unbind")

	err = p.SendCommand(context.Background(), instance.ID, "ping")
	assert.Equal(t, fault.ErrProtocolNotStarted, err, "send after stop")

	// a new cycle binds again
	assert.Nil(t, b.Bind(instance), "rebind")
	b.Unbind()
}

func TestBinderWithManager(t *testing.T) {
	b := protocol.NewBinder(logger.New("testing"))
	m := node.New(node.Options{
		Configuration: node.Configuration{
			Swarm:    []string{"/ip4/127.0.0.1/tcp/0"},
			Identity: "0xmanaged",
		},
		Binder: b,
		Log:    logger.New("testing"),
	})

	instance, err := m.Acquire(context.Background())
	assert.Nil(t, err, "acquire")

	p, err := b.Protocol()
	assert.Nil(t, err, "protocol bound before online")
	assert.Equal(t, instance.Host, p.Host(), "same host")

	assert.Nil(t, m.Stop(context.Background()), "stop")
	_, err = b.Protocol()
	assert.Equal(t, fault.ErrProtocolNotStarted, err, "unbound on stop")
}

func TestSendTooLarge(t *testing.T) {
	instance, err := node.NewInstance(context.Background(), node.Configuration{
		Swarm:          []string{"/ip4/127.0.0.1/tcp/0"},
		MaxMessageSize: 64,
	}, logger.New("testing"))
	assert.Nil(t, err, "instance")
	defer instance.Close()

	b := protocol.NewBinder(logger.New("testing"))
	assert.Nil(t, b.Bind(instance), "bind")
	defer b.Unbind()

	p, _ := b.Protocol()
	long := string(make([]byte, 100))
	err = p.SendCommand(context.Background(), instance.ID, "big", long)
	assert.Equal(t, fault.ErrMessageTooLarge, err, "oversized command")
	id, err := instance.Blocks.Put(make([]byte, 100))
	assert.Nil(t, err, "put")
	assert.Equal(t, fault.ErrBlockTooLarge, p.CheckBlock(id), "oversized block")
	err = p.SendBlock(context.Background(), instance.ID, id)
	assert.Equal(t, fault.ErrBlockTooLarge, err, "oversized block send")

	small, err := instance.Blocks.Put([]byte("small"))
	assert.Nil(t, err, "put small")
	assert.Nil(t, p.CheckBlock(small), "small block fits")
}
