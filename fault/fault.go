// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type LengthError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised    = ExistsError("already initialised")
	ErrBlockTooLarge         = LengthError("block too large")
	ErrCancelled             = ProcessError("cancelled")
	ErrCIDMismatch           = InvalidError("content identifier does not match data")
	ErrConfigurationNotTable = InvalidError("configuration must return a table")
	ErrContentNotFound       = NotFoundError("content not found")
	ErrIndexRequestFail      = ProcessError("index request failed")
	ErrInvalidAddress        = InvalidError("invalid address")
	ErrInvalidCID            = InvalidError("invalid content identifier")
	ErrInvalidDirectory      = InvalidError("invalid directory")
	ErrInvalidDuration       = InvalidError("invalid duration")
	ErrInvalidMessage        = InvalidError("invalid protocol message")
	ErrInvalidPrivateKey     = InvalidError("invalid private key")
	ErrMessageTooLarge       = LengthError("protocol message too large")
	ErrMissingIdentifier     = InvalidError("missing identifier")
	ErrMissingParameters     = LengthError("missing parameters")
	ErrNoBootstrapPeers      = NotFoundError("no bootstrap peers reachable")
	ErrNodeNotOnline         = ProcessError("node is not online")
	ErrNodeStopping          = ProcessError("node is stopping")
	ErrNoPinner              = NotFoundError("no pinning peer configured")
	ErrNotInitialised        = NotFoundError("not initialised")
	ErrNotPlainFileName      = InvalidError("not a plain file name")
	ErrPinAttemptClosed      = ProcessError("pin attempt closed")
	ErrPinRejected           = ProcessError("pin rejected")
	ErrPinTimedOut           = ProcessError("pin request timed out")
	ErrProtocolBind          = ProcessError("protocol bind failed")
	ErrProtocolNotStarted    = ProcessError("protocol not started")
	ErrRecordNotFound        = NotFoundError("record not found")
	ErrWaitingForBlock       = ProcessError("timed out waiting for block")
	ErrWrongNumberOfHeaders  = LengthError("wrong number of message fields")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e LengthError) Error() string   { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool   { var t ExistsError; return errors.As(e, &t) }
func IsErrInvalid(e error) bool  { var t InvalidError; return errors.As(e, &t) }
func IsErrLength(e error) bool   { var t LengthError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool { var t NotFoundError; return errors.As(e, &t) }
func IsErrProcess(e error) bool  { var t ProcessError; return errors.As(e, &t) }
