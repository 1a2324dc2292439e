// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package core - user and video workflows spanning the ledger, the
// content store and the index
package core

import (
	"context"

	cid "github.com/ipfs/go-cid"

	"github.com/bitmark-inc/paratii/index"
)

// ContentStore - where off-chain fields are kept
type ContentStore interface {
	AddJSON(ctx context.Context, v interface{}) (cid.Cid, error)
}

// Index - read side for users and videos
type Index interface {
	GetUser(ctx context.Context, id string) (index.Record, error)
	GetVideo(ctx context.Context, id string) (index.Record, error)
}
