// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pin

import (
	"fmt"

	cid "github.com/ipfs/go-cid"
)

// Outcome - terminal result of a pin attempt
type Outcome struct {
	CID cid.Cid
	Err error // nil when pinned
}

// Pinned - true if the content was pinned
func (o Outcome) Pinned() bool {
	return nil == o.Err
}

func (o Outcome) String() string {
	if o.Pinned() {
		return fmt.Sprintf("pinned: %s", o.CID)
	}
	return fmt.Sprintf("failed: %s  error: %s", o.CID, o.Err)
}

// Warning - a failed attempt that will be retried
type Warning struct {
	CID     cid.Cid
	Attempt int
	Cause   error
}

func (w Warning) String() string {
	return fmt.Sprintf("pin: %s  attempt: %d  error: %s", w.CID, w.Attempt, w.Cause)
}
