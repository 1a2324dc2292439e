// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/paratii/messagebus"
)

// background process moving queued events into the relay
type pump struct {
	log   *logger.L
	queue *messagebus.Queue
	relay *Relay
}

func (p *pump) Run(args interface{}, shutdown <-chan struct{}) {
	log := p.log
	log.Info("pump: starting…")

	queue := p.queue.Chan()
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case item, ok := <-queue:
			if !ok {
				break loop
			}
			event, ok := item.Item.(PeerEvent)
			if !ok {
				log.Warnf("pump: unexpected item from: %s  type: %T", item.From, item.Item)
				continue loop
			}
			p.relay.Publish(event)
		}
	}
	log.Info("pump: stopped")
}
