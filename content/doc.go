// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package content - local content addressed block store
//
// blocks are keyed by a CIDv1 (raw codec, sha2-256 multihash) of
// their bytes, so storing identical bytes twice yields the same
// identifier and the second store is a no-op
package content
