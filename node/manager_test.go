// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/node"
	"github.com/bitmark-inc/paratii/node/mocks"
)

// constructor stub that counts calls and blocks until released
type stubConstructor struct {
	calls   int32
	release chan struct{}
	err     error
}

func newStub() *stubConstructor {
	s := &stubConstructor{
		release: make(chan struct{}),
	}
	close(s.release)
	return s
}

func (s *stubConstructor) construct(ctx context.Context, configuration node.Configuration, log *logger.L) (*node.Instance, error) {
	atomic.AddInt32(&s.calls, 1)
	<-s.release
	if nil != s.err {
		return nil, s.err
	}
	return &node.Instance{
		Configuration: configuration,
		Identity:      configuration.Identity,
	}, nil
}

func (s *stubConstructor) count() int {
	return int(atomic.LoadInt32(&s.calls))
}

func waitForState(t *testing.T, m *node.Manager, expected node.State) {
	for i := 0; i < 200; i += 1 {
		if expected == m.State() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state: %s  expected: %s", m.State(), expected)
}

func TestAcquireSharesAttempt(t *testing.T) {
	stub := newStub()
	stub.release = make(chan struct{})

	m := node.New(node.Options{
		Configuration: node.Configuration{Identity: "0xabc"},
		Construct:     stub.construct,
		Log:           logger.New("testing"),
	})
	assert.Equal(t, node.Unstarted, m.State(), "initial state")

	const callers = 5
	instances := make([]*node.Instance, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i += 1 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instances[i], errs[i] = m.Acquire(context.Background())
		}(i)
	}

	waitForState(t, m, node.Starting)
	close(stub.release)
	wg.Wait()

	assert.Equal(t, 1, stub.count(), "construction count")
	for i := 0; i < callers; i += 1 {
		assert.Nil(t, errs[i], "acquire error")
		assert.Equal(t, instances[0], instances[i], "same instance")
	}
	assert.Equal(t, node.Online, m.State(), "state")
	assert.Equal(t, "0xabc", m.Instance().Identity, "identity")

	// further acquires reuse the online node
	again, err := m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")
	assert.Equal(t, instances[0], again, "online instance")
	assert.Equal(t, 1, stub.count(), "construction count")
}

func TestAcquireConstructionFailure(t *testing.T) {
	boom := errors.New("boom")
	stub := newStub()
	stub.err = boom

	m := node.New(node.Options{
		Construct: stub.construct,
		Log:       logger.New("testing"),
	})

	instance, err := m.Acquire(context.Background())
	assert.Nil(t, instance, "instance")
	assert.Equal(t, boom, err, "cause")
	assert.Equal(t, node.Unstarted, m.State(), "state")
	assert.Nil(t, m.Instance(), "no instance")

	// retry is caller driven and starts from scratch
	stub.err = nil
	instance, err = m.Acquire(context.Background())
	assert.Nil(t, err, "retry error")
	assert.NotNil(t, instance, "retry instance")
	assert.Equal(t, 2, stub.count(), "construction count")
	assert.Equal(t, node.Online, m.State(), "state")
}

func TestStopThenAcquire(t *testing.T) {
	stub := newStub()
	m := node.New(node.Options{
		Construct: stub.construct,
		Log:       logger.New("testing"),
	})

	first, err := m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")

	err = m.Stop(context.Background())
	assert.Nil(t, err, "stop error")
	assert.Equal(t, node.Stopped, m.State(), "state")
	assert.Nil(t, m.Instance(), "no instance")

	second, err := m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")
	assert.Equal(t, 2, stub.count(), "construction count")
	assert.False(t, first == second, "fresh instance")
}

func TestStopWithoutNode(t *testing.T) {
	stub := newStub()
	m := node.New(node.Options{
		Construct: stub.construct,
		Log:       logger.New("testing"),
	})

	assert.Nil(t, m.Stop(context.Background()), "stop unstarted")
	assert.Equal(t, node.Unstarted, m.State(), "state")

	_, err := m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")
	assert.Nil(t, m.Stop(context.Background()), "stop online")
	assert.Nil(t, m.Stop(context.Background()), "stop stopped")
	assert.Equal(t, node.Stopped, m.State(), "state")
	assert.Equal(t, 1, stub.count(), "construction count")
}

func TestStopWhileStarting(t *testing.T) {
	stub := newStub()
	stub.release = make(chan struct{})

	m := node.New(node.Options{
		Construct: stub.construct,
		Log:       logger.New("testing"),
	})

	acquired := make(chan error, 1)
	go func() {
		_, err := m.Acquire(context.Background())
		acquired <- err
	}()
	waitForState(t, m, node.Starting)

	stopped := make(chan error, 1)
	go func() {
		stopped <- m.Stop(context.Background())
	}()

	close(stub.release)
	assert.Nil(t, <-acquired, "acquire error")
	assert.Nil(t, <-stopped, "stop error")
	assert.Equal(t, node.Stopped, m.State(), "state")
}

func TestAcquireCancelledWaiter(t *testing.T) {
	stub := newStub()
	stub.release = make(chan struct{})

	m := node.New(node.Options{
		Construct: stub.construct,
		Log:       logger.New("testing"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := m.Acquire(ctx)
		cancelled <- err
	}()

	waitForState(t, m, node.Starting)

	patient := make(chan *node.Instance, 1)
	go func() {
		instance, _ := m.Acquire(context.Background())
		patient <- instance
	}()

	cancel()
	err := <-cancelled
	assert.True(t, errors.Is(err, fault.ErrCancelled), "cancelled")
	assert.True(t, errors.Is(err, context.Canceled), "context error")

	close(stub.release)
	assert.NotNil(t, <-patient, "other waiter still served")
	assert.Equal(t, 1, stub.count(), "construction count")
}

func TestBindFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	refused := errors.New("refused")
	binder := mocks.NewMockBinder(ctl)
	gomock.InOrder(
		binder.EXPECT().Bind(gomock.Any()).Return(refused).Times(1),
		binder.EXPECT().Bind(gomock.Any()).Return(nil).Times(1),
		binder.EXPECT().Unbind().Times(1),
	)

	stub := newStub()
	m := node.New(node.Options{
		Construct: stub.construct,
		Binder:    binder,
		Log:       logger.New("testing"),
	})

	_, err := m.Acquire(context.Background())
	assert.True(t, errors.Is(err, fault.ErrProtocolBind), "bind fault")
	assert.True(t, errors.Is(err, refused), "bind cause")
	assert.Equal(t, node.Unstarted, m.State(), "state")

	_, err = m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")
	assert.Nil(t, m.Stop(context.Background()), "stop error")
}

func TestExistingInstanceAdopted(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	existing := &node.Instance{Identity: "injected"}

	binder := mocks.NewMockBinder(ctl)
	binder.EXPECT().Bind(existing).Return(nil).Times(1)
	binder.EXPECT().Bind(gomock.Not(existing)).Return(nil).Times(1)
	binder.EXPECT().Unbind().Times(2)

	stub := newStub()
	m := node.New(node.Options{
		Construct: stub.construct,
		Existing:  existing,
		Binder:    binder,
		Log:       logger.New("testing"),
	})

	instance, err := m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")
	assert.Equal(t, existing, instance, "existing instance")
	assert.Equal(t, 0, stub.count(), "no construction")

	assert.Nil(t, m.Stop(context.Background()), "stop error")

	// only the first cycle adopts the injected instance
	instance, err = m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")
	assert.False(t, existing == instance, "constructed instance")
	assert.Equal(t, 1, stub.count(), "construction count")
	assert.Nil(t, m.Stop(context.Background()), "stop error")
}

func TestWaitDoesNotStart(t *testing.T) {
	stub := newStub()
	m := node.New(node.Options{
		Construct: stub.construct,
		Log:       logger.New("testing"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Wait(ctx)
	assert.True(t, errors.Is(err, fault.ErrNodeNotOnline), "not online")
	assert.True(t, errors.Is(err, fault.ErrCancelled), "nothing started")
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "deadline")
	assert.Equal(t, 0, stub.count(), "construction count")

	waited := make(chan *node.Instance, 1)
	go func() {
		instance, _ := m.Wait(context.Background())
		waited <- instance
	}()

	instance, err := m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")
	assert.Equal(t, instance, <-waited, "waiter sees the online node")
}

func TestAcquireWhileStoppingCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	unbinding := make(chan struct{})
	release := make(chan struct{})
	binder := mocks.NewMockBinder(ctrl)
	binder.EXPECT().Bind(gomock.Any()).Return(nil)
	binder.EXPECT().Unbind().Do(func() {
		close(unbinding)
		<-release
	})

	m := node.New(node.Options{
		Construct: newStub().construct,
		Binder:    binder,
		Log:       logger.New("testing"),
	})
	_, err := m.Acquire(context.Background())
	assert.Nil(t, err, "acquire error")

	stopped := make(chan error, 1)
	go func() {
		stopped <- m.Stop(context.Background())
	}()
	<-unbinding
	assert.Equal(t, node.Stopping, m.State(), "stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx)
	assert.True(t, errors.Is(err, fault.ErrNodeStopping), "node stopping: %v", err)
	assert.True(t, errors.Is(err, fault.ErrCancelled), "cancelled")

	err = m.Stop(ctx)
	assert.True(t, errors.Is(err, fault.ErrNodeStopping), "second stop while stopping: %v", err)

	close(release)
	assert.Nil(t, <-stopped, "stop error")
	assert.Equal(t, node.Stopped, m.State(), "stopped")
}
