// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package content

import (
	"strings"

	cid "github.com/ipfs/go-cid"
	multihash "github.com/multiformats/go-multihash"

	"github.com/bitmark-inc/paratii/fault"
)

// Identify - compute the content identifier of some bytes
func Identify(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if nil != err {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Verify - check that data hashes to the given identifier
//
// the identifier's own prefix is used, so identifiers produced by
// other codecs or hash functions are still checked correctly
func Verify(id cid.Cid, data []byte) error {
	if !id.Defined() {
		return fault.ErrInvalidCID
	}
	actual, err := id.Prefix().Sum(data)
	if nil != err {
		return fault.Join(fault.ErrInvalidCID, err)
	}
	if !actual.Equals(id) {
		return fault.ErrCIDMismatch
	}
	return nil
}

// Parse - decode the string form of an identifier
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(strings.TrimSpace(s))
	if nil != err {
		return cid.Undef, fault.Join(fault.ErrInvalidCID, err)
	}
	return id, nil
}

// Cast - decode the binary form of an identifier
func Cast(b []byte) (cid.Cid, error) {
	id, err := cid.Cast(b)
	if nil != err {
		return cid.Undef, fault.Join(fault.ErrInvalidCID, err)
	}
	return id, nil
}
