// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node - lifecycle of the local peer-to-peer node
//
// A Manager owns at most one node instance at a time.  Acquire starts
// the node on first demand and every caller arriving before it is
// online shares the same start attempt.  Stop tears the instance down
// and a later Acquire builds a fresh one.
//
//   Unstarted -> Starting -> Online -> Stopping -> Stopped -> Starting ...
//                    |
//                    +-> Unstarted (construction or bind failure)
package node
