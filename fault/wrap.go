// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// pair of errors that satisfies errors.Is for both of them
type joined struct {
	primary error
	cause   error
}

// Join - combine a fault instance with an underlying cause
//
// errors.Is succeeds for either of them and Error() shows both
func Join(primary error, cause error) error {
	if nil == cause {
		return primary
	}
	return &joined{
		primary: primary,
		cause:   cause,
	}
}

func (j *joined) Error() string {
	return j.primary.Error() + ": " + j.cause.Error()
}

func (j *joined) Unwrap() error {
	return j.cause
}

func (j *joined) Is(target error) bool {
	return errors.Is(j.primary, target)
}

func (j *joined) As(target interface{}) bool {
	return errors.As(j.primary, target)
}

// Cancelled - report a cancellation caused by a context error
func Cancelled(cause error) error {
	return Join(ErrCancelled, cause)
}
