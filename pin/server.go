// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pin

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	cid "github.com/ipfs/go-cid"

	"github.com/bitmark-inc/paratii/content"
	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/protocol"
)

// DefaultBlockTimeout - how long the server waits for a wanted block
const DefaultBlockTimeout = 30 * time.Second

const (
	replyTimeout = 10 * time.Second
)

// Server - the pinning side of the protocol
type Server struct {
	sync.Mutex
	log          *logger.L
	transport    Transport
	blockTimeout time.Duration
	detach       func()
	active       sync.WaitGroup
}

// NewServer - create a pinning server, call Start to accept requests
func NewServer(transport Transport, blockTimeout time.Duration, log *logger.L) *Server {
	if blockTimeout <= 0 {
		blockTimeout = DefaultBlockTimeout
	}
	if nil == log {
		log = logger.New("pin")
	}
	return &Server{
		log:          log,
		transport:    transport,
		blockTimeout: blockTimeout,
	}
}

// Start - begin answering pin commands
func (s *Server) Start() {
	s.Lock()
	defer s.Unlock()
	if nil == s.detach {
		s.detach = s.transport.Register(s)
		s.log.Info("pin server: started")
	}
}

// Stop - stop answering and wait for requests in progress
func (s *Server) Stop() {
	s.Lock()
	detach := s.detach
	s.detach = nil
	s.Unlock()

	if nil != detach {
		detach()
		s.active.Wait()
		s.log.Info("pin server: stopped")
	}
}

// Update - receive relayed commands
func (s *Server) Update(event protocol.PeerEvent) {
	if protocol.ProtocolCommand != event.Kind || PinCommand != event.Command {
		return
	}
	s.active.Add(1)
	go func() {
		defer s.active.Done()
		s.pin(event)
	}()
}

func (s *Server) pin(event protocol.PeerEvent) {
	if 0 == len(event.Args) {
		s.log.Warnf("pin without cid from: %s", event.Peer.ShortString())
		return
	}
	author := ""
	if len(event.Args) > 1 {
		author = event.Args[1]
	}
	request := ""
	if len(event.Args) > 2 {
		request = event.Args[2]
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.blockTimeout)
	defer cancel()

	p, err := s.transport.Protocol(ctx)
	if nil != err {
		s.log.Errorf("pin from: %s  error: %s", event.Peer.ShortString(), err)
		return
	}

	id, err := content.Parse(event.Args[0])
	if nil == err {
		err = s.fetch(ctx, p, event, id)
	}

	reply, done := context.WithTimeout(context.Background(), replyTimeout)
	defer done()

	if nil != err {
		s.log.Warnf("pin: %q  from: %s  author: %q  error: %s", event.Args[0], event.Peer.ShortString(), author, err)
		if e := p.SendCommand(reply, event.Peer, EventError, event.Args[0], request, err.Error()); nil != e {
			s.log.Errorf("reply to: %s  error: %s", event.Peer.ShortString(), e)
		}
		return
	}

	s.log.Infof("pinned: %s  from: %s  author: %q", id, event.Peer.ShortString(), author)
	if e := p.SendCommand(reply, event.Peer, EventDone, id.String(), request); nil != e {
		s.log.Errorf("reply to: %s  error: %s", event.Peer.ShortString(), e)
	}
}

// make sure the block is held locally, asking the requester for it
func (s *Server) fetch(ctx context.Context, p *protocol.Protocol, event protocol.PeerEvent, id cid.Cid) error {
	blocks := p.Blocks()
	if blocks.Has(id) {
		return nil
	}

	arrived := make(chan struct{})
	var once sync.Once
	detach := p.Register(protocol.ObserverFunc(func(e protocol.PeerEvent) {
		if protocol.BlockReceived == e.Kind && id.Equals(e.CID) {
			once.Do(func() { close(arrived) })
		}
	}))
	defer detach()

	// it may have arrived while registering
	if blocks.Has(id) {
		return nil
	}
	if err := p.Want(ctx, event.Peer, id); nil != err {
		return err
	}

	select {
	case <-arrived:
		return nil
	case <-ctx.Done():
		return fault.ErrWaitingForBlock
	}
}
