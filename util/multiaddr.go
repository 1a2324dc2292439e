// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	peerlib "github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/paratii/fault"
)

// ParseHostPort - parse host:port  return version(ip4/ip6), ip, port, error
func ParseHostPort(hostPort string) (string, string, string, error) {
	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return "", "", "", err
	}
	ip := strings.TrimSpace(host)
	numericPort, err := strconv.Atoi(strings.TrimSpace(port))
	if nil != err {
		return "", "", "", err
	}
	if numericPort < 0 || numericPort > 65535 {
		return "", "", "", fault.ErrInvalidAddress
	}
	netIP := net.ParseIP(ip)
	if nil == netIP {
		return "", "", "", fault.ErrInvalidAddress
	}
	ver := "ip6"
	if nil != netIP.To4() {
		ver = "ip4"
	}
	return ver, ip, strconv.Itoa(numericPort), nil
}

// ToMultiaddrs - convert configuration addresses to multiaddrs
//
// each entry is either a multiaddr ("/ip4/0.0.0.0/tcp/4001") or a
// plain "host:port" which is taken to be TCP
func ToMultiaddrs(addrs []string) ([]ma.Multiaddr, error) {
	maAddrs := make([]ma.Multiaddr, 0, len(addrs))
	for _, s := range addrs {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "/") {
			addr, err := ma.NewMultiaddr(s)
			if nil != err {
				return nil, fault.Join(fault.ErrInvalidAddress, err)
			}
			maAddrs = append(maAddrs, addr)
			continue
		}
		ver, ip, port, err := ParseHostPort(s)
		if nil != err {
			return nil, fault.Join(fault.ErrInvalidAddress, err)
		}
		addr, err := ma.NewMultiaddr(fmt.Sprintf("/%s/%s/tcp/%s", ver, ip, port))
		if nil != err {
			return nil, fault.Join(fault.ErrInvalidAddress, err)
		}
		maAddrs = append(maAddrs, addr)
	}
	return maAddrs, nil
}

// AddrInfos - convert full peer addresses (".../p2p/<id>") into
// peer.AddrInfo, merging addresses that belong to the same peer
func AddrInfos(addrs []string) ([]peerlib.AddrInfo, error) {
	maAddrs, err := ToMultiaddrs(addrs)
	if nil != err {
		return nil, err
	}
	if 0 == len(maAddrs) {
		return nil, nil
	}
	infos, err := peerlib.AddrInfosFromP2pAddrs(maAddrs...)
	if nil != err {
		return nil, fault.Join(fault.ErrInvalidAddress, err)
	}
	return infos, nil
}

// AddrInfo - convert a single full peer address
func AddrInfo(addr string) (*peerlib.AddrInfo, error) {
	infos, err := AddrInfos([]string{addr})
	if nil != err {
		return nil, err
	}
	if 1 != len(infos) {
		return nil, fault.ErrInvalidAddress
	}
	return &infos[0], nil
}

// PrintMaAddrs - print out all multiaddrs comma separated
func PrintMaAddrs(addrs []ma.Multiaddr) string {
	s := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		s = append(s, addr.String())
	}
	return strings.Join(s, ", ")
}
