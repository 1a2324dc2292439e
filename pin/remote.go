// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pin

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	cid "github.com/ipfs/go-cid"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
	"github.com/libp2p/go-libp2p-core/peerstore"

	"github.com/bitmark-inc/paratii/content"
	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/protocol"
	"github.com/bitmark-inc/paratii/util"
)

// DefaultAttemptTimeout - how long an attempt waits for a reply
const DefaultAttemptTimeout = 2 * time.Minute

// Remote - pin client asking a pinning peer over the protocol
//
// each request carries a request number which the pinner echoes in
// its pin:done / pin:error reply, so a late reply to an earlier
// attempt cannot settle a later one
type Remote struct {
	sync.Mutex
	log       *logger.L
	transport Transport
	pinner    peerlib.AddrInfo
	timeout   time.Duration
	nextID    uint64
	pending   map[string]*Attempt
	detach    func()
}

// NewRemote - create a client for the pinner at a p2p multiaddress
func NewRemote(transport Transport, pinner string, timeout time.Duration, log *logger.L) (*Remote, error) {
	if "" == pinner {
		return nil, fault.ErrNoPinner
	}
	info, err := util.AddrInfo(pinner)
	if nil != err {
		return nil, err
	}
	if "" == info.ID {
		return nil, fault.Join(fault.ErrInvalidAddress, errors.New("pinner address has no peer id"))
	}
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	if nil == log {
		log = logger.New("pin")
	}

	r := &Remote{
		log:       log,
		transport: transport,
		pinner:    *info,
		timeout:   timeout,
		pending:   make(map[string]*Attempt),
	}
	r.detach = transport.Register(r)
	return r, nil
}

// Pinner - the pinning peer
func (r *Remote) Pinner() peerlib.ID {
	return r.pinner.ID
}

// Close - stop listening for replies
func (r *Remote) Close() {
	r.detach()
}

// Pin - send one pin request
func (r *Remote) Pin(ctx context.Context, id cid.Cid, author string) *Attempt {
	a := NewAttempt(id)
	request := r.add(a)
	go r.request(ctx, a, request, author)
	return a
}

func (r *Remote) request(ctx context.Context, a *Attempt, request string, author string) {
	defer r.remove(request)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p, err := r.transport.Protocol(ctx)
	if nil != err {
		a.Fail(a.CID(), err)
		return
	}

	if len(r.pinner.Addrs) > 0 {
		p.Host().Peerstore().AddAddrs(r.pinner.ID, r.pinner.Addrs, peerstore.PermanentAddrTTL)
	}

	err = p.SendCommand(ctx, r.pinner.ID, PinCommand, a.CID().String(), author, request)
	if nil != err {
		a.Fail(a.CID(), err)
		return
	}

	select {
	case <-a.Disposed():
	case <-ctx.Done():
		a.Fail(a.CID(), fault.Join(fault.ErrPinTimedOut, ctx.Err()))
	}
}

func (r *Remote) add(a *Attempt) string {
	r.Lock()
	defer r.Unlock()
	r.nextID += 1
	request := strconv.FormatUint(r.nextID, 10)
	r.pending[request] = a
	return request
}

func (r *Remote) remove(request string) {
	r.Lock()
	defer r.Unlock()
	delete(r.pending, request)
}

// Pending - attempts waiting for a reply
func (r *Remote) Pending() int {
	r.Lock()
	defer r.Unlock()
	return len(r.pending)
}

// Update - receive relayed replies
func (r *Remote) Update(event protocol.PeerEvent) {
	if protocol.ProtocolCommand != event.Kind || event.Peer != r.pinner.ID {
		return
	}
	if EventDone != event.Command && EventError != event.Command {
		return
	}
	if len(event.Args) < 2 {
		r.log.Warnf("%s without cid and request from: %s", event.Command, event.Peer.ShortString())
		return
	}
	id, err := content.Parse(event.Args[0])
	if nil != err {
		r.log.Warnf("%s from: %s  error: %s", event.Command, event.Peer.ShortString(), err)
		return
	}

	request := event.Args[1]
	r.Lock()
	a, ok := r.pending[request]
	r.Unlock()
	if !ok {
		r.log.Debugf("%s for: %s  request: %q  no longer pending", event.Command, id, request)
		return
	}

	if EventDone == event.Command {
		a.Done(id)
		return
	}
	cause := "unknown"
	if len(event.Args) > 2 {
		cause = event.Args[2]
	}
	a.Fail(id, fault.Join(fault.ErrPinRejected, errors.New(cause)))
}
