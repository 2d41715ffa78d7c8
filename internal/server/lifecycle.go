// Package server supervises the arena's long-running services. Every
// registered service starts at once; when one fails, all of them return, a
// termination signal arrives, or the context ends, each is stopped in the
// reverse of its registration order.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a blocking unit of work. Start runs until the service is told to
// stop or fails; Stop must make a running Start return.
type Service interface {
	Start() error
	Stop()
}

// FuncService builds a Service from two closures.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start runs StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop runs StopFn.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle supervises a set of named services.
type Lifecycle struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries []entry
}

type entry struct {
	name string
	svc  Service
}

// exit is what a supervised Start returned.
type exit struct {
	name   string
	err    error
	uptime time.Duration
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers svc under name. Registration order is the reverse of stop order.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{name: name, svc: svc})
}

// Run starts every service and blocks until SIGINT or SIGTERM, ctx ends, a
// service's Start returns an error, or every Start has returned cleanly.
//
// Postcondition: Stop has been called on every service. The returned error
// wraps the failing service's error, or is nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	began := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	entries := slices.Clone(l.entries)
	l.mu.Unlock()

	exits := make(chan exit, len(entries))
	for _, e := range entries {
		go l.supervise(e, exits)
	}
	l.logger.Info("services launched",
		zap.Int("count", len(entries)),
		zap.Duration("startup", time.Since(began)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var failure error
	remaining := len(entries)
wait:
	for remaining > 0 {
		select {
		case sig := <-sigCh:
			l.logger.Info("signal received, stopping services", zap.Stringer("signal", sig))
			break wait
		case <-ctx.Done():
			l.logger.Info("context done, stopping services")
			break wait
		case x := <-exits:
			remaining--
			if x.err != nil {
				failure = fmt.Errorf("service %s: %w", x.name, x.err)
				l.logger.Error("service failed, stopping the rest",
					zap.String("service", x.name),
					zap.Duration("uptime", x.uptime),
					zap.Error(x.err),
				)
				break wait
			}
			l.logger.Info("service returned",
				zap.String("service", x.name),
				zap.Duration("uptime", x.uptime),
			)
		}
	}
	if remaining == 0 && failure == nil {
		l.logger.Info("every service returned")
	}

	l.stopAll(entries)
	l.logger.Info("lifecycle finished", zap.Duration("total_uptime", time.Since(began)))
	return failure
}

func (l *Lifecycle) supervise(e entry, exits chan<- exit) {
	l.logger.Info("service starting", zap.String("service", e.name))
	t0 := time.Now()
	err := e.svc.Start()
	exits <- exit{name: e.name, err: err, uptime: time.Since(t0)}
}

// stopAll stops entries last-registered first.
func (l *Lifecycle) stopAll(entries []entry) {
	t0 := time.Now()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		st := time.Now()
		e.svc.Stop()
		l.logger.Info("service stopped",
			zap.String("service", e.name),
			zap.Duration("elapsed", time.Since(st)),
		)
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(t0)))
}
