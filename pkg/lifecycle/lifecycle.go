// Package lifecycle coordinates startup, readiness and shutdown of the
// long-lived subsystems behind the server.
package lifecycle

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

type check struct {
	name    string
	checker ReadinessChecker
}

// Coordinator runs startup hooks, answers readiness from the checks
// registered with Require, and drains named shutdown hooks.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	ready      atomic.Bool
	stopping   atomic.Bool

	mu      sync.Mutex
	checks  []check
	pending map[string]int
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]int),
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn concurrently. WaitForStartup waits for all of them.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown runs fn concurrently. fn should block on <-c.Context().Done()
// before cleaning up. name identifies the hook if shutdown times out.
func (c *Coordinator) OnShutdown(name string, fn func()) {
	c.mu.Lock()
	c.pending[name]++
	c.mu.Unlock()

	c.shutdownWg.Go(func() {
		defer c.done(name)
		fn()
	})
}

// Require adds checker to the readiness checks reported by Ready.
func (c *Coordinator) Require(name string, checker ReadinessChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check{name: name, checker: checker})
}

// Ready reports whether startup finished, shutdown has not begun and
// every required check passes.
func (c *Coordinator) Ready() bool {
	if !c.ready.Load() || c.stopping.Load() {
		return false
	}
	return len(c.Unready()) == 0
}

// Unready names the required checks that are currently failing.
func (c *Coordinator) Unready() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var names []string
	for _, ch := range c.checks {
		if !ch.checker.Ready() {
			names = append(names, ch.name)
		}
	}
	return names
}

// WaitForStartup blocks until all startup hooks have completed and sets the ready flag.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.ready.Store(true)
}

// Shutdown withdraws readiness, cancels the context and waits up to
// timeout for the shutdown hooks. On timeout the error names the hooks
// still running.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.stopping.Store(true)
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("shutdown timeout after %v: waiting on %v", timeout, c.running())
	}
}

func (c *Coordinator) done(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[name]--; c.pending[name] <= 0 {
		delete(c.pending, name)
	}
}

func (c *Coordinator) running() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.pending))
	for name := range c.pending {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
