// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ipfs - content storage, pinning and peer messaging in one place
//
// The node is started on the first operation that needs it.  JSON
// documents added with AddAndPinJSON are stored locally and then
// pinned on the configured pinning peer, retrying until the pinner
// holds them or the caller gives up.
package ipfs

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	cid "github.com/ipfs/go-cid"
	peerlib "github.com/libp2p/go-libp2p-core/peer"

	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/node"
	"github.com/bitmark-inc/paratii/pin"
	"github.com/bitmark-inc/paratii/protocol"
)

// UnknownAuthor - author tag for pin requests without an account
const UnknownAuthor = "unknown"

// Configuration - settings for the facade
type Configuration struct {
	Node node.Configuration

	// account address, used as the author of pin requests
	Author string

	// answer pin requests from other peers
	Serve bool

	// per attempt wait for a pin reply, and server wait for a block
	PinTimeout   time.Duration
	BlockTimeout time.Duration

	// adopted instead of constructing the first node
	Existing *node.Instance
}

// IPFS - facade over the node, protocol and pinning components
type IPFS struct {
	log         *logger.L
	author      string
	binder      *protocol.Binder
	manager     *node.Manager
	remote      *pin.Remote
	coordinator *pin.Coordinator
	server      *pin.Server
}

// New - create the facade, nothing is started yet
func New(configuration Configuration, log *logger.L) (*IPFS, error) {
	if nil == log {
		log = logger.New("ipfs")
	}

	author := configuration.Author
	if "" == author {
		author = UnknownAuthor
	} else if "" == configuration.Node.Identity {
		configuration.Node.Identity = author
	}

	i := &IPFS{
		log:    log,
		author: author,
		binder: protocol.NewBinder(logger.New("protocol")),
	}
	i.manager = node.New(node.Options{
		Configuration: configuration.Node,
		Existing:      configuration.Existing,
		Binder:        i.binder,
		Log:           logger.New("node"),
	})

	if "" != configuration.Node.Pinner {
		remote, err := pin.NewRemote(transport{i}, configuration.Node.Pinner, configuration.PinTimeout, logger.New("pin"))
		if nil != err {
			return nil, err
		}
		i.remote = remote
		i.coordinator = pin.NewCoordinator(remote, logger.New("pin"))
	}
	if configuration.Serve {
		i.server = pin.NewServer(transport{i}, configuration.BlockTimeout, logger.New("pin"))
		i.server.Start()
	}
	return i, nil
}

// pinning waits for the node instead of starting it, so a stopped
// node does not turn retries into restarts
type transport struct {
	i *IPFS
}

func (t transport) Protocol(ctx context.Context) (*protocol.Protocol, error) {
	if _, err := t.i.manager.Wait(ctx); nil != err {
		return nil, err
	}
	return t.i.binder.Protocol()
}

func (t transport) Register(o protocol.Observer) func() {
	return t.i.binder.Register(o)
}

// Start - bring the node online
func (i *IPFS) Start(ctx context.Context) error {
	_, err := i.manager.Acquire(ctx)
	return err
}

// Stop - take the node offline, a later operation starts a new one
func (i *IPFS) Stop(ctx context.Context) error {
	return i.manager.Stop(ctx)
}

// Close - stop the node, abandon outstanding pins and stop serving
func (i *IPFS) Close(ctx context.Context) error {
	if nil != i.server {
		i.server.Stop()
	}
	if nil != i.coordinator {
		i.coordinator.Close()
	}
	if nil != i.remote {
		i.remote.Close()
	}
	return i.Stop(ctx)
}

// State - lifecycle state of the node
func (i *IPFS) State() node.State {
	return i.manager.State()
}

// ID - peer identity of the running node
func (i *IPFS) ID(ctx context.Context) (peerlib.ID, error) {
	instance, err := i.manager.Acquire(ctx)
	if nil != err {
		return "", err
	}
	return instance.ID, nil
}

// Add - store bytes locally
func (i *IPFS) Add(ctx context.Context, data []byte) (cid.Cid, error) {
	instance, err := i.manager.Acquire(ctx)
	if nil != err {
		return cid.Undef, err
	}
	return instance.Blocks.Put(data)
}

// Get - read bytes from the local store
func (i *IPFS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	instance, err := i.manager.Acquire(ctx)
	if nil != err {
		return nil, err
	}
	return instance.Blocks.Get(id)
}

// AddJSON - store a JSON encoded value locally
func (i *IPFS) AddJSON(ctx context.Context, v interface{}) (cid.Cid, error) {
	instance, err := i.manager.Acquire(ctx)
	if nil != err {
		return cid.Undef, err
	}
	return instance.Blocks.PutJSON(v)
}

// GetJSON - decode a JSON value from the local store
func (i *IPFS) GetJSON(ctx context.Context, id cid.Cid, v interface{}) error {
	instance, err := i.manager.Acquire(ctx)
	if nil != err {
		return err
	}
	return instance.Blocks.GetJSON(id, v)
}

// AddAndPinJSON - store a value locally then wait until it is pinned
//
// the identifier is returned with any error so a caller that gave up
// can pin it again later
func (i *IPFS) AddAndPinJSON(ctx context.Context, v interface{}) (cid.Cid, error) {
	id, err := i.AddJSON(ctx, v)
	if nil != err {
		return cid.Undef, err
	}
	_, err = i.Pin(ctx, id)
	return id, err
}

// Pin - wait until content already stored locally is pinned
func (i *IPFS) Pin(ctx context.Context, id cid.Cid) (pin.Outcome, error) {
	if nil == i.coordinator {
		return pin.Outcome{CID: id, Err: fault.ErrNoPinner}, fault.ErrNoPinner
	}
	instance, err := i.manager.Acquire(ctx)
	if nil != err {
		return pin.Outcome{CID: id, Err: err}, err
	}
	if !instance.Blocks.Has(id) {
		return pin.Outcome{CID: id, Err: fault.ErrContentNotFound}, fault.ErrContentNotFound
	}

	// a block that cannot be sent would fail every attempt
	p, err := i.binder.Protocol()
	if nil == err {
		err = p.CheckBlock(id)
	}
	if nil != err {
		return pin.Outcome{CID: id, Err: err}, err
	}
	return i.coordinator.PinAndWait(ctx, id, i.author)
}

// Warnings - failed pin attempts, nil without a pinner
func (i *IPFS) Warnings() <-chan pin.Warning {
	if nil == i.coordinator {
		return nil
	}
	return i.coordinator.Warnings()
}

// Subscribe - receive commands sent by peers
func (i *IPFS) Subscribe(f func(protocol.PeerEvent)) func() {
	return i.binder.Register(protocol.ObserverFunc(f))
}

// SendCommand - send a command to a peer
func (i *IPFS) SendCommand(ctx context.Context, to peerlib.ID, name string, args ...string) error {
	if _, err := i.manager.Acquire(ctx); nil != err {
		return err
	}
	p, err := i.binder.Protocol()
	if nil != err {
		return err
	}
	return p.SendCommand(ctx, to, name, args...)
}

// Addresses - full p2p addresses of the running node
func (i *IPFS) Addresses(ctx context.Context) ([]string, error) {
	instance, err := i.manager.Acquire(ctx)
	if nil != err {
		return nil, err
	}
	addrs := make([]string, 0, len(instance.Host.Addrs()))
	for _, a := range instance.Host.Addrs() {
		addrs = append(addrs, a.String()+"/p2p/"+instance.ID.Pretty())
	}
	return addrs, nil
}
