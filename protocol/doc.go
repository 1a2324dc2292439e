// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package protocol - application messages exchanged between nodes
//
// Every stream carries varint length prefixed Message records.  The
// first field of a record selects its kind:
//
//   C  command:  C <name> <identity> <args...>
//   B  block:    B <cid bytes> <block bytes>
//
// Records read from a stream are queued for a background pump that
// hands them to the relay.  The relay keeps a FIFO per peer, so
// delivery to observers never holds up a stream reader.
package protocol
