// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/paratii/fault"
)

// Binder - attaches services to a node once it is ready
//
// Bind is called exactly once per lifecycle cycle and Unbind is
// called before the node is closed
type Binder interface {
	Bind(instance *Instance) error
	Unbind()
}

// Options - parameters for New
type Options struct {
	Configuration Configuration
	Construct     Constructor // defaults to NewInstance
	Existing      *Instance   // adopted on the first cycle instead of constructing
	Binder        Binder      // optional
	Log           *logger.L
}

// Manager - owner of the single node instance of a process
type Manager struct {
	sync.Mutex

	log           *logger.L
	configuration Configuration
	construct     Constructor
	existing      *Instance
	binder        Binder

	state    State
	changed  chan struct{} // closed on every state change
	current  *attempt
	instance *Instance
	cancel   context.CancelFunc
	stopped  chan struct{}
}

// New - create a manager, no node is started until the first Acquire
func New(options Options) *Manager {
	log := options.Log
	if nil == log {
		log = logger.New("node")
	}
	construct := options.Construct
	if nil == construct {
		construct = NewInstance
	}
	return &Manager{
		log:           log,
		configuration: options.Configuration,
		construct:     construct,
		existing:      options.Existing,
		binder:        options.Binder,
		state:         Unstarted,
		changed:       make(chan struct{}),
	}
}

// change state, must be called with the lock held
func (m *Manager) setState(state State) {
	m.state = state
	close(m.changed)
	m.changed = make(chan struct{})
}

// State - current lifecycle state
func (m *Manager) State() State {
	m.Lock()
	defer m.Unlock()
	return m.state
}

// Instance - the running node or nil if not Online
func (m *Manager) Instance() *Instance {
	m.Lock()
	defer m.Unlock()
	if Online != m.state {
		return nil
	}
	return m.instance
}

// Wait - wait until a node is Online without starting one
func (m *Manager) Wait(ctx context.Context) (*Instance, error) {
	for {
		m.Lock()
		if Online == m.state {
			instance := m.instance
			m.Unlock()
			return instance, nil
		}
		changed := m.changed
		m.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, fault.Join(fault.ErrNodeNotOnline, fault.Cancelled(ctx.Err()))
		}
	}
}

// Acquire - return the running node, starting one if necessary
//
// callers arriving while a node is Starting share that attempt, so
// at most one node is constructed per cycle
func (m *Manager) Acquire(ctx context.Context) (*Instance, error) {
	for {
		m.Lock()
		switch m.state {

		case Online:
			instance := m.instance
			m.Unlock()
			return instance, nil

		case Starting:
			a := m.current
			m.Unlock()
			return a.wait(ctx)

		case Stopping:
			stopped := m.stopped
			m.Unlock()
			select {
			case <-stopped:
			case <-ctx.Done():
				return nil, fault.Join(fault.ErrNodeStopping, fault.Cancelled(ctx.Err()))
			}

		default: // Unstarted, Stopped
			a := m.begin()
			m.Unlock()
			return a.wait(ctx)
		}
	}
}

// enter Starting, must be called with the lock held
func (m *Manager) begin() *attempt {
	a := newAttempt()
	m.current = a
	m.setState(Starting)

	configuration := m.configuration.freeze()
	existing := m.existing
	m.existing = nil

	// the host lives until Stop, not for the first caller's context
	ctx, cancel := context.WithCancel(context.Background())

	m.log.Info("starting")
	go m.start(ctx, cancel, a, configuration, existing)
	return a
}

func (m *Manager) start(ctx context.Context, cancel context.CancelFunc, a *attempt, configuration Configuration, existing *Instance) {
	instance := existing
	if nil == instance {
		var err error
		instance, err = m.construct(ctx, configuration, m.log)
		if nil != err {
			m.log.Errorf("construction failed: %s", err)
			m.fail(a, instance, cancel, err)
			return
		}
	} else {
		m.log.Info("using existing instance")
	}
	m.ready(ctx, cancel, a, instance)
}

// ready signal for an attempt, duplicates are ignored
func (m *Manager) ready(ctx context.Context, cancel context.CancelFunc, a *attempt, instance *Instance) {
	m.Lock()
	if a.signalled || a != m.current || Starting != m.state {
		m.Unlock()
		m.log.Debug("duplicate ready signal ignored")
		return
	}
	a.signalled = true
	m.Unlock()

	m.log.Infof("ready: %s", instance)

	if nil != m.binder {
		if err := m.binder.Bind(instance); nil != err {
			m.log.Errorf("bind failed: %s", err)
			m.fail(a, instance, cancel, fault.Join(fault.ErrProtocolBind, err))
			return
		}
	}

	m.Lock()
	m.setState(Online)
	m.instance = instance
	m.cancel = cancel
	m.Unlock()

	m.log.Info("online")
	a.resolve(instance, nil)
}

// return to Unstarted and hand the cause to every waiter
func (m *Manager) fail(a *attempt, instance *Instance, cancel context.CancelFunc, err error) {
	if nil != instance {
		if e := instance.Close(); nil != e {
			m.log.Warnf("close after failure: %s", e)
		}
	}
	cancel()

	m.Lock()
	m.setState(Unstarted)
	m.current = nil
	m.Unlock()

	a.resolve(nil, err)
}

// Stop - shut down the running node
//
// a no-op when nothing is running, waits for a Starting node to
// settle before stopping it
func (m *Manager) Stop(ctx context.Context) error {
	for {
		m.Lock()
		switch m.state {

		case Unstarted, Stopped:
			m.Unlock()
			return nil

		case Starting:
			a := m.current
			m.Unlock()
			select {
			case <-a.done:
			case <-ctx.Done():
				return fault.Cancelled(ctx.Err())
			}

		case Stopping:
			stopped := m.stopped
			m.Unlock()
			select {
			case <-stopped:
				return nil
			case <-ctx.Done():
				return fault.Join(fault.ErrNodeStopping, fault.Cancelled(ctx.Err()))
			}

		case Online:
			instance := m.instance
			cancel := m.cancel
			stopped := make(chan struct{})
			m.stopped = stopped
			m.setState(Stopping)
			m.Unlock()

			m.log.Info("stopping")
			if nil != m.binder {
				m.binder.Unbind()
			}
			err := instance.Close()
			cancel()

			m.Lock()
			m.setState(Stopped)
			m.instance = nil
			m.current = nil
			m.cancel = nil
			m.Unlock()
			close(stopped)

			m.log.Info("stopped")
			return err
		}
	}
}
