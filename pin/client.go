// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pin

import (
	"context"

	cid "github.com/ipfs/go-cid"

	"github.com/bitmark-inc/paratii/protocol"
)

// Client - issues single pin requests
//
// the attempt reports exactly one of Done or Fail unless it is
// disposed first
type Client interface {
	Pin(ctx context.Context, id cid.Cid, author string) *Attempt
}

// Transport - access to the bound protocol and its relayed commands
//
// Protocol may wait for the node to come online but must not start it
type Transport interface {
	Protocol(ctx context.Context) (*protocol.Protocol, error)
	Register(protocol.Observer) func()
}

// wire commands
const (
	PinCommand = "pin"
)
