// Package lifecycle coordinates startup hooks, shutdown hooks, and the
// readiness of the subsystems a service depends on.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// ErrShutdownTimeout is returned when shutdown hooks outlive the deadline.
var ErrShutdownTimeout = errors.New("shutdown timeout")

// StartupCheck names the pending entry reported until every startup hook
// has returned.
const StartupCheck = "startup"

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

type check struct {
	name    string
	checker ReadinessChecker
}

// Coordinator manages startup and shutdown hooks for the application lifecycle.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup

	mu      sync.RWMutex
	started bool
	checks  []check
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a function to run concurrently during startup.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown registers a function to run concurrently during shutdown.
// Shutdown hooks should block on <-c.Context().Done() before executing cleanup.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// Require adds a named subsystem that must report ready before the
// coordinator does. Registering a name twice replaces the earlier checker.
func (c *Coordinator) Require(name string, checker ReadinessChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.checks, func(ch check) bool { return ch.name == name })
	if i >= 0 {
		c.checks[i].checker = checker
		return
	}
	c.checks = append(c.checks, check{name: name, checker: checker})
}

// Ready reports whether startup has finished and every required subsystem
// is ready.
func (c *Coordinator) Ready() bool {
	return len(c.Pending()) == 0
}

// Pending lists what is not ready yet, in registration order. StartupCheck
// leads the list while startup hooks are still running.
func (c *Coordinator) Pending() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var pending []string
	if !c.started {
		pending = append(pending, StartupCheck)
	}
	for _, ch := range c.checks {
		if !ch.checker.Ready() {
			pending = append(pending, ch.name)
		}
	}
	return pending
}

// WaitForStartup blocks until all startup hooks have completed.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
}

// Shutdown cancels the context and waits for shutdown hooks to complete
// within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
