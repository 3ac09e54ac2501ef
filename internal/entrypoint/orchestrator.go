// SPDX-License-Identifier: MPL-2.0

// Package entrypoint runs the container bootstrap sequence: create sshd's
// runtime directory, bring up the SSH daemon, run the workload command, and
// optionally hold the process alive so the container stays reachable.
//
// The first two steps are load-bearing and abort the sequence on failure.
// The workload is the opposite: whatever it does, the sequence carries on,
// because SSH access for debugging a failed workload is the whole point of
// this entrypoint.
package entrypoint

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"bookforge/internal/config"
	"bookforge/internal/sshd"
	"bookforge/internal/workload"
	"bookforge/pkg/platform"

	"github.com/charmbracelet/log"
)

type (
	// WorkloadRunner runs the container's main command.
	WorkloadRunner interface {
		Run(ctx context.Context, argv []string) *workload.Result
	}

	// NotifyContextFunc is the function signature for signal-aware contexts.
	// Defaults to signal.NotifyContext; tests inject a fake to deliver
	// shutdown signals deterministically.
	NotifyContextFunc func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc)

	// Orchestrator drives the bootstrap sequence. An Orchestrator instance is
	// single-use: once terminated or failed, create a new instance.
	Orchestrator struct {
		cfg      *config.Config
		launcher sshd.Launcher
		runner   WorkloadRunner

		// State management (atomic for lock-free reads)
		state atomic.Int32

		notifyContext NotifyContextFunc
		logger        *log.Logger
	}

	// Option configures an Orchestrator.
	Option func(*Orchestrator)
)

// WithWorkloadRunner sets the workload runner.
func WithWorkloadRunner(r WorkloadRunner) Option {
	return func(o *Orchestrator) {
		o.runner = r
	}
}

// WithNotifyContext sets a custom signal-context factory for testing.
func WithNotifyContext(fn NotifyContextFunc) Option {
	return func(o *Orchestrator) {
		o.notifyContext = fn
	}
}

// WithLogger sets the logger used for bootstrap diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an orchestrator that starts SSH through the given launcher.
func New(cfg *config.Config, launcher sshd.Launcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:           cfg,
		launcher:      launcher,
		runner:        workload.NewRunner(),
		notifyContext: signal.NotifyContext,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "entrypoint",
		}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.state.Store(int32(StateInit))
	return o
}

// State returns the current bootstrap state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Run executes the bootstrap sequence with argv as the workload command.
// It returns nil when the sequence completed, including when the workload
// itself failed. A non-nil error means a fatal bootstrap step failed and the
// process should exit non-zero.
//
// When keep-alive is armed, Run blocks after the workload until SIGINT or
// SIGTERM arrives, then returns nil for a clean shutdown.
func (o *Orchestrator) Run(ctx context.Context, argv []string) error {
	if !o.state.CompareAndSwap(int32(StateInit), int32(StateDaemonStarting)) {
		return fmt.Errorf("cannot run entrypoint in state %s", o.State())
	}

	if runtime := platform.DetectContainer(); runtime != platform.ContainerNone {
		o.logger.Debug("container runtime detected", "runtime", runtime)
	}

	if err := sshd.EnsureRuntimeDir(o.cfg.Entrypoint.RuntimeDir); err != nil {
		o.fail(err)
		return err
	}

	o.logger.Info("starting ssh daemon", "method", o.launcher.Name())
	if err := o.launcher.Start(ctx); err != nil {
		o.fail(err)
		return err
	}

	o.state.Store(int32(StateWorkloadRunning))
	o.runWorkloadBestEffort(ctx, argv)

	if o.cfg.Entrypoint.KeepAlive {
		o.state.Store(int32(StateIdling))
		o.logger.Info("holding container open, send SIGTERM to stop")
		o.waitForShutdown(ctx)
	}

	o.state.Store(int32(StateTerminated))
	return nil
}

// runWorkloadBestEffort runs the workload and deliberately discards its
// result. Exit codes, missing binaries, and every other workload problem are
// logged and then ignored so the container stays up for SSH debugging.
func (o *Orchestrator) runWorkloadBestEffort(ctx context.Context, argv []string) {
	if len(argv) == 0 {
		o.logger.Debug("no workload command given")
		return
	}

	o.logger.Info("running workload", "command", workload.Describe(argv))
	result := o.runner.Run(ctx, argv)
	o.logger.Debug("workload finished", "result", result)
}

// waitForShutdown blocks until a termination signal or context cancellation.
func (o *Orchestrator) waitForShutdown(ctx context.Context) {
	sigCtx, stop := o.notifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	o.logger.Info("shutdown signal received")
}

// fail records a fatal bootstrap error.
func (o *Orchestrator) fail(err error) {
	o.state.Store(int32(StateFailed))
	o.logger.Error("bootstrap failed", "error", err)
}
