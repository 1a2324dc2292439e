// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package index

import (
	"encoding/json"

	"github.com/bitmark-inc/paratii/fault"
)

// cached values are shared, so every caller gets its own copy
func copyReply(raw interface{}, reply interface{}) error {
	buffer, err := json.Marshal(raw)
	if nil != err {
		return err
	}
	if err := json.Unmarshal(buffer, reply); nil != err {
		return fault.Join(fault.ErrIndexRequestFail, err)
	}
	return nil
}
