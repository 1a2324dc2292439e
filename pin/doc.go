// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pin - durable replication of local content to a pinning peer
//
// A Client issues single pin attempts.  The Coordinator repeats
// attempts for an identifier until one succeeds, emitting a Warning
// for every failure, and coalesces concurrent requests for the same
// identifier so that at most one attempt is outstanding.  The Server
// is the pinning side: it fetches the block from the requester if it
// does not already hold it and replies with the result.
package pin
