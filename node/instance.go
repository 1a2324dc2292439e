// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/bitmark-inc/logger"
	libp2p "github.com/libp2p/go-libp2p"
	connmgr "github.com/libp2p/go-libp2p-connmgr"
	crypto "github.com/libp2p/go-libp2p-core/crypto"
	"github.com/libp2p/go-libp2p-core/host"
	peerlib "github.com/libp2p/go-libp2p-core/peer"
	"github.com/libp2p/go-libp2p-core/peerstore"
	tls "github.com/libp2p/go-libp2p-tls"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/paratii/content"
	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/util"
)

var nodeProtocol = ma.ProtocolWithCode(ma.P_P2P).Name

// Instance - a running node
//
// once Online the instance is shared read-only by every component
type Instance struct {
	Configuration Configuration // frozen copy used to build this node
	Host          host.Host
	Blocks        content.Store
	ID            peerlib.ID
	Identity      string

	closeOnce sync.Once
	closeErr  error
}

// Constructor - build a node from configuration
type Constructor func(ctx context.Context, configuration Configuration, log *logger.L) (*Instance, error)

// NewInstance - create a libp2p host and open the local block store
func NewInstance(ctx context.Context, configuration Configuration, log *logger.L) (*Instance, error) {

	configuration = configuration.freeze()

	prvKey, err := privateKey(configuration.PrivateKey)
	if nil != err {
		return nil, err
	}

	listen, err := util.ToMultiaddrs(configuration.Swarm)
	if nil != err {
		return nil, err
	}

	cm := connmgr.NewConnManager(
		configuration.Connections.Low,
		configuration.Connections.High,
		configuration.Connections.GraceDuration(),
	)
	options := []libp2p.Option{
		libp2p.Identity(prvKey),
		libp2p.Security(tls.ID, tls.New),
		libp2p.ConnectionManager(cm),
	}
	if len(listen) > 0 {
		options = append(options, libp2p.ListenAddrs(listen...))
	}

	newHost, err := libp2p.New(ctx, options...)
	if nil != err {
		return nil, err
	}
	for _, a := range newHost.Addrs() {
		log.Infof("host address: %s/%s/%s", a, nodeProtocol, newHost.ID().Pretty())
	}

	var blocks content.Store
	if "" == configuration.Repo {
		blocks, err = content.NewMemory(log)
	} else {
		blocks, err = content.Open(configuration.Repo, log)
	}
	if nil != err {
		newHost.Close()
		return nil, err
	}

	instance := &Instance{
		Configuration: configuration,
		Host:          newHost,
		Blocks:        blocks,
		ID:            newHost.ID(),
		Identity:      configuration.Identity,
	}

	if len(configuration.Bootstrap) > 0 {
		infos, err := util.AddrInfos(configuration.Bootstrap)
		if nil != err {
			instance.Close()
			return nil, err
		}
		if err := bootstrapConnect(ctx, newHost, infos, log); nil != err {
			// the node is still usable and peers may connect to it later
			log.Warnf("bootstrap: %s", err)
		}
	}

	return instance, nil
}

func privateKey(hexKey string) (crypto.PrivKey, error) {
	if "" != hexKey {
		return util.DecodePrivKeyFromHex(hexKey)
	}
	prvKey, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, 0, rand.Reader)
	return prvKey, err
}

// dial all bootstrap peers concurrently, failing only if none of
// them could be reached
func bootstrapConnect(ctx context.Context, h host.Host, peers []peerlib.AddrInfo, log *logger.L) error {
	if len(peers) < 1 {
		return fault.ErrNoBootstrapPeers
	}

	errs := make(chan error, len(peers))
	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p peerlib.AddrInfo) {
			defer wg.Done()
			log.Debugf("bootstrapping to: %s", p.ID.ShortString())

			h.Peerstore().AddAddrs(p.ID, p.Addrs, peerstore.PermanentAddrTTL)
			if err := h.Connect(ctx, p); nil != err {
				log.Debugf("failed to bootstrap with: %s  error: %s", p.ID.ShortString(), err)
				errs <- err
				return
			}
			log.Infof("bootstrapped with: %s", p.ID.ShortString())
		}(p)
	}
	wg.Wait()

	close(errs)
	count := 0
	var err error
	for e := range errs {
		count += 1
		err = e
	}
	if count == len(peers) {
		return fault.Join(fault.ErrNoBootstrapPeers, err)
	}
	return nil
}

// Close - shut down the host and block store
func (i *Instance) Close() error {
	if nil == i {
		return nil
	}
	i.closeOnce.Do(func() {
		if nil != i.Host {
			if err := i.Host.Close(); nil != err {
				i.closeErr = err
			}
		}
		if nil != i.Blocks {
			if err := i.Blocks.Close(); nil != err && nil == i.closeErr {
				i.closeErr = err
			}
		}
	})
	return i.closeErr
}

// String - short description for logging
func (i *Instance) String() string {
	return fmt.Sprintf("node: %s  identity: %q", i.ID.ShortString(), i.Identity)
}
