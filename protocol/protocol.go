// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	cid "github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p-core/host"
	"github.com/libp2p/go-libp2p-core/network"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
	libp2pprotocol "github.com/libp2p/go-libp2p-core/protocol"

	"github.com/bitmark-inc/paratii/background"
	"github.com/bitmark-inc/paratii/content"
	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/messagebus"
	"github.com/bitmark-inc/paratii/node"
	"github.com/bitmark-inc/paratii/util"
)

// ID - protocol identifier registered on the host
const ID = libp2pprotocol.ID("/paratii/1.0.0")

// NoIdentity - tag used when no local identity is configured
const NoIdentity = "no_address"

// built-in commands
const (
	WantCommand = "want"
)

const (
	wantTimeout = 30 * time.Second
)

// Protocol - application protocol bound to a host and block store
type Protocol struct {
	sync.RWMutex

	log      *logger.L
	host     host.Host
	blocks   content.Store
	identity string
	maxSize  int

	queue      *messagebus.Queue
	relay      *Relay
	background *background.T
	outbound   map[peerlib.ID]*outbound
	started    bool
	stopped    bool
}

// cached stream for writing to one peer
type outbound struct {
	sync.Mutex
	stream network.Stream
}

// New - create a protocol, it does nothing until Start
func New(h host.Host, blocks content.Store, identity string, log *logger.L, maxSize int) *Protocol {
	if "" == identity {
		identity = NoIdentity
	}
	if maxSize <= 0 {
		maxSize = node.DefaultMaxMessageSize
	}
	return &Protocol{
		log:      log,
		host:     h,
		blocks:   blocks,
		identity: identity,
		maxSize:  maxSize,
		queue:    messagebus.New(messagebus.DefaultQueueSize),
		relay:    NewRelay(log),
		outbound: make(map[peerlib.ID]*outbound),
	}
}

// Start - register the stream handler and start the message pump
func (p *Protocol) Start() error {
	p.Lock()
	defer p.Unlock()

	if p.started {
		return fault.ErrAlreadyInitialised
	}
	p.started = true

	processes := background.Processes{
		&pump{
			log:   p.log,
			queue: p.queue,
			relay: p.relay,
		},
	}
	p.background = background.Start(processes, nil)
	p.host.SetStreamHandler(ID, p.handleStream)

	p.log.Infof("protocol: %s  identity: %q", ID, p.identity)
	return nil
}

// Stop - remove the stream handler and stop the pump
func (p *Protocol) Stop() {
	p.Lock()
	if !p.started || p.stopped {
		p.Unlock()
		return
	}
	p.stopped = true
	p.Unlock()

	p.host.RemoveStreamHandler(ID)
	p.closeOutbound()
	p.queue.Close()
	p.background.Stop()
	p.log.Info("protocol: stopped")
}

// Identity - tag carried by every outgoing command
func (p *Protocol) Identity() string {
	return p.identity
}

// Host - the host the protocol is bound to
func (p *Protocol) Host() host.Host {
	return p.host
}

// Blocks - the local block store
func (p *Protocol) Blocks() content.Store {
	return p.blocks
}

// Register - observe every event received, see Relay.Register
func (p *Protocol) Register(o Observer) func() {
	return p.relay.Register(o)
}

// Relay - the relay fed by this protocol
func (p *Protocol) Relay() *Relay {
	return p.relay
}

func (p *Protocol) running() bool {
	p.RLock()
	defer p.RUnlock()
	return p.started && !p.stopped
}

// SendCommand - send a command tagged with the local identity
func (p *Protocol) SendCommand(ctx context.Context, to peerlib.ID, name string, args ...string) error {
	packed, err := PackCommand(name, p.identity, args...)
	if nil != err {
		return err
	}
	util.LogDebug(p.log, util.CoCyan, fmt.Sprintf("send to: %s  command: %s %q", to.ShortString(), name, args))
	return p.send(ctx, to, packed)
}

// SendBlock - send a block from the local store
func (p *Protocol) SendBlock(ctx context.Context, to peerlib.ID, id cid.Cid) error {
	block, packed, err := p.packBlock(id)
	if nil != err {
		return err
	}
	util.LogDebug(p.log, util.CoCyan, fmt.Sprintf("send to: %s  block: %s  size: %d", to.ShortString(), id, len(block)))
	return p.send(ctx, to, packed)
}

// CheckBlock - ensure a locally held block fits in one record
func (p *Protocol) CheckBlock(id cid.Cid) error {
	_, _, err := p.packBlock(id)
	return err
}

func (p *Protocol) packBlock(id cid.Cid) ([]byte, []byte, error) {
	block, err := p.blocks.Get(id)
	if nil != err {
		return nil, nil, err
	}
	packed, err := PackBlock(id, block)
	if nil != err {
		return nil, nil, err
	}
	if len(packed) > p.maxSize {
		return nil, nil, fault.ErrBlockTooLarge
	}
	return block, packed, nil
}

// Want - ask a peer to send a block
func (p *Protocol) Want(ctx context.Context, from peerlib.ID, id cid.Cid) error {
	return p.SendCommand(ctx, from, WantCommand, id.String())
}

// records to one peer share a single stream so they are read in order
func (p *Protocol) send(ctx context.Context, to peerlib.ID, packed []byte) error {
	if !p.running() {
		return fault.ErrProtocolNotStarted
	}
	if len(packed) > p.maxSize {
		return fault.ErrMessageTooLarge
	}

	o := p.outboundTo(to)
	o.Lock()
	defer o.Unlock()

	// a cached stream may have been reset by the peer, so retry once
	// on a fresh one
	var err error
	for try := 0; try < 2; try += 1 {
		if nil == o.stream {
			o.stream, err = p.host.NewStream(ctx, to, ID)
			if nil != err {
				return err
			}
		}
		if deadline, ok := ctx.Deadline(); ok {
			_ = o.stream.SetWriteDeadline(deadline)
		}
		err = writeRecord(o.stream, packed, p.maxSize)
		if nil == err {
			_ = o.stream.SetWriteDeadline(time.Time{})
			return nil
		}
		_ = o.stream.Reset()
		o.stream = nil
	}
	return err
}

func (p *Protocol) outboundTo(to peerlib.ID) *outbound {
	p.Lock()
	defer p.Unlock()
	o, ok := p.outbound[to]
	if !ok {
		o = &outbound{}
		p.outbound[to] = o
	}
	return o
}

func (p *Protocol) closeOutbound() {
	p.Lock()
	streams := p.outbound
	p.outbound = make(map[peerlib.ID]*outbound)
	p.Unlock()

	for _, o := range streams {
		o.Lock()
		if nil != o.stream {
			_ = o.stream.Close()
			o.stream = nil
		}
		o.Unlock()
	}
}

func (p *Protocol) handleStream(stream network.Stream) {
	from := stream.Conn().RemotePeer()
	reader := newRecordReader(stream, p.maxSize)

	for {
		packed, err := reader.ReadMsg()
		if io.EOF == err {
			_ = stream.Close()
			return
		}
		if nil != err {
			p.log.Warnf("read from: %s  error: %s", from.ShortString(), err)
			_ = stream.Reset()
			return
		}

		event, err := Unpack(packed)
		if nil != err {
			util.LogWarn(p.log, util.CoRed, fmt.Sprintf("invalid record from: %s  error: %s", from.ShortString(), err))
			_ = stream.Reset()
			return
		}
		event.Peer = from
		p.receive(*event)
	}
}

// handle one inbound event, anything slow is moved off the stream
func (p *Protocol) receive(event PeerEvent) {
	util.LogDebug(p.log, util.CoGreen, fmt.Sprintf("received: %s", event))

	switch event.Kind {

	case BlockReceived:
		if err := p.blocks.PutBlock(event.CID, event.Payload); nil != err {
			p.log.Warnf("discard block from: %s  cid: %s  error: %s", event.Peer.ShortString(), event.CID, err)
			return
		}

	case ProtocolCommand:
		if WantCommand == event.Command {
			go p.answerWant(event)
			return
		}
	}

	if !p.queue.Send(event.Peer.Pretty(), event) {
		p.log.Debugf("protocol stopped, dropped: %s", event)
	}
}

func (p *Protocol) answerWant(event PeerEvent) {
	if 0 == len(event.Args) {
		p.log.Warnf("want without cid from: %s", event.Peer.ShortString())
		return
	}
	id, err := content.Parse(event.Args[0])
	if nil != err {
		p.log.Warnf("want from: %s  error: %s", event.Peer.ShortString(), err)
		return
	}
	if !p.blocks.Has(id) {
		p.log.Debugf("want from: %s  cid: %s  not held", event.Peer.ShortString(), id)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), wantTimeout)
	defer cancel()
	if err := p.SendBlock(ctx, event.Peer, id); nil != err {
		p.log.Warnf("answer want to: %s  cid: %s  error: %s", event.Peer.ShortString(), id, err)
	}
}
