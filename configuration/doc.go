// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - parse a Lua configuration file
//
// most of base Lua is available such as reading files to set key data
// and getenv to extract environment supplied items.  The file must
// return a single table, for example:
//
//   return {
//     data_directory = ".",
//     ipfs = {
//       swarm = { "/ip4/0.0.0.0/tcp/4001" },
//       pinner = "/ip4/1.2.3.4/tcp/4001/p2p/Qm...",
//     },
//     account = { address = os.getenv("PARATII_ADDRESS") },
//   }
package configuration
