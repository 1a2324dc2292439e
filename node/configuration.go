// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"time"
)

// defaults
const (
	DefaultMaxMessageSize  = 256 * 1024
	defaultLowConnections  = 16
	defaultMaxConnections  = 64
	defaultConnectionGrace = 30 * time.Second
)

// ConnectionsConfiguration - connection manager limits
type ConnectionsConfiguration struct {
	Low   int    `gluamapper:"low" json:"low"`
	High  int    `gluamapper:"high" json:"high"`
	Grace string `gluamapper:"grace" json:"grace"`
}

// Configuration - a block of configuration data
// this is read from the configuration file
type Configuration struct {
	Repo           string                   `gluamapper:"repo" json:"repo"`
	Swarm          []string                 `gluamapper:"swarm" json:"swarm"`
	Bootstrap      []string                 `gluamapper:"bootstrap" json:"bootstrap"`
	PrivateKey     string                   `gluamapper:"private_key" json:"private_key"`
	Pinner         string                   `gluamapper:"pinner" json:"pinner"`
	MaxMessageSize int                      `gluamapper:"max_message_size" json:"max_message_size"`
	Connections    ConnectionsConfiguration `gluamapper:"connections" json:"connections"`

	// address used to tag outgoing protocol messages
	// taken from the account section, not the ipfs section
	Identity string `gluamapper:"-" json:"identity"`
}

// frozen copy with defaults applied, so later changes by the caller
// cannot reach a running node
func (c Configuration) freeze() Configuration {
	frozen := c
	frozen.Swarm = append([]string(nil), c.Swarm...)
	frozen.Bootstrap = append([]string(nil), c.Bootstrap...)

	if frozen.MaxMessageSize <= 0 {
		frozen.MaxMessageSize = DefaultMaxMessageSize
	}
	if frozen.Connections.Low <= 0 {
		frozen.Connections.Low = defaultLowConnections
	}
	if frozen.Connections.High < frozen.Connections.Low {
		frozen.Connections.High = defaultMaxConnections
		if frozen.Connections.High < frozen.Connections.Low {
			frozen.Connections.High = frozen.Connections.Low
		}
	}
	return frozen
}

// GraceDuration - connection manager grace period
func (c ConnectionsConfiguration) GraceDuration() time.Duration {
	if "" == c.Grace {
		return defaultConnectionGrace
	}
	d, err := time.ParseDuration(c.Grace)
	if nil != err || d <= 0 {
		return defaultConnectionGrace
	}
	return d
}
