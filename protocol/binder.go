// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"fmt"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/node"
	"github.com/bitmark-inc/paratii/util"
)

// Binder - attaches a Protocol to each node the manager brings online
//
// observers registered on the binder stay registered across node
// restarts and only see commands, blocks are logged here
type Binder struct {
	sync.Mutex
	log      *logger.L
	upstream *Relay
	protocol *Protocol
	detach   func()
}

// NewBinder - create a binder with no protocol bound
func NewBinder(log *logger.L) *Binder {
	if nil == log {
		log = logger.New("protocol")
	}
	return &Binder{
		log:      log,
		upstream: NewRelay(log),
	}
}

// Bind - create and start a protocol for a node that is ready
func (b *Binder) Bind(instance *node.Instance) error {
	b.Lock()
	defer b.Unlock()

	if nil != b.protocol {
		return fault.ErrAlreadyInitialised
	}
	if nil == instance || nil == instance.Host || nil == instance.Blocks {
		return fault.ErrNotInitialised
	}

	identity := instance.Identity
	if "" == identity {
		b.log.Warnf("no identity configured, using: %q", NoIdentity)
		identity = NoIdentity
	}

	p := New(instance.Host, instance.Blocks, identity, b.log, instance.Configuration.MaxMessageSize)
	detach := p.Register(ObserverFunc(b.update))
	if err := p.Start(); nil != err {
		detach()
		return err
	}

	b.protocol = p
	b.detach = detach
	b.log.Infof("bound to: %s", instance)
	return nil
}

// Unbind - stop the bound protocol, if any
func (b *Binder) Unbind() {
	b.Lock()
	p := b.protocol
	detach := b.detach
	b.protocol = nil
	b.detach = nil
	b.Unlock()

	if nil == p {
		return
	}
	p.Stop()
	detach()
	b.log.Info("unbound")
}

// Protocol - the currently bound protocol
func (b *Binder) Protocol() (*Protocol, error) {
	b.Lock()
	defer b.Unlock()
	if nil == b.protocol {
		return nil, fault.ErrProtocolNotStarted
	}
	return b.protocol, nil
}

// Register - observe commands from every peer
func (b *Binder) Register(o Observer) func() {
	return b.upstream.Register(o)
}

// Relay - the relay carrying commands to registered observers
func (b *Binder) Relay() *Relay {
	return b.upstream
}

func (b *Binder) update(event PeerEvent) {
	switch event.Kind {
	case BlockReceived:
		util.LogInfo(b.log, util.CoYellow, fmt.Sprintf("block received from: %s  cid: %s  size: %d", event.Peer.ShortString(), event.CID, len(event.Payload)))
	case ProtocolCommand:
		b.upstream.Publish(event)
	}
}
