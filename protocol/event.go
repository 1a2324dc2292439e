// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"fmt"

	cid "github.com/ipfs/go-cid"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
)

// EventKind - type of inbound notification
type EventKind int

// kinds of event
const (
	BlockReceived EventKind = iota
	ProtocolCommand
)

func (k EventKind) String() string {
	switch k {
	case BlockReceived:
		return "block"
	case ProtocolCommand:
		return "command"
	default:
		return "*unknown*"
	}
}

// PeerEvent - notification received from a peer
type PeerEvent struct {
	Peer peerlib.ID
	Kind EventKind

	// ProtocolCommand
	Command  string
	Identity string // sender's identity tag
	Args     []string

	// BlockReceived
	CID     cid.Cid
	Payload []byte
}

func (e PeerEvent) String() string {
	switch e.Kind {
	case BlockReceived:
		return fmt.Sprintf("block from: %s  cid: %s  size: %d", e.Peer.ShortString(), e.CID, len(e.Payload))
	default:
		return fmt.Sprintf("command from: %s  identity: %q  %s %q", e.Peer.ShortString(), e.Identity, e.Command, e.Args)
	}
}

// Observer - receives relayed events
type Observer interface {
	Update(PeerEvent)
}

// ObserverFunc - adapter to use a function as an Observer
type ObserverFunc func(PeerEvent)

// Update - call f(event)
func (f ObserverFunc) Update(event PeerEvent) {
	f(event)
}
