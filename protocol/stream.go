// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"io"

	msgio "github.com/libp2p/go-msgio"

	"github.com/bitmark-inc/paratii/fault"
)

// write one length prefixed record
func writeRecord(w io.Writer, packed []byte, maxSize int) error {
	if len(packed) > maxSize {
		return fault.ErrMessageTooLarge
	}
	return msgio.NewVarintWriter(w).WriteMsg(packed)
}

// reader for length prefixed records, rejecting oversized ones
func newRecordReader(r io.Reader, maxSize int) msgio.Reader {
	return msgio.NewVarintReaderSize(r, maxSize)
}
