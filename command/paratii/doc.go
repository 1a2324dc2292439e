// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// paratii - content node with remote pinning
//
// runs a node that stores JSON documents, exchanges commands with
// peers and pins documents on a pinning peer.  See "paratii help" for
// the list of commands.
package main
