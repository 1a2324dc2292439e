// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

// State - lifecycle state of the node
type State int

// possible states
const (
	Unstarted State = iota
	Starting
	Online
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Starting:
		return "starting"
	case Online:
		return "online"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "*unknown*"
	}
}
