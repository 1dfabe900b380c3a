// Package runctl provides the shutdown coordination shared by all four
// AIST processes, generalizing cmd/samantha/main.go's single
// signal-channel-then-context-cancel sequence (written once there because
// the teacher only has one long-running process) into a reusable helper
// since the backend, frontend, gui, and skillworker all need the same
// sequence independently.
package runctl

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Flag is a shared atomic "keep running" signal, cleared by
// WaitForShutdown alongside canceling its context. The poll loops
// (command server, wire-bus loops, STT providers) watch ctx.Done(); none
// of them reads this flag.
type Flag struct {
	running atomic.Bool
}

// NewFlag constructs a Flag starting in the running state.
func NewFlag() *Flag {
	f := &Flag{}
	f.running.Store(true)
	return f
}

// Running reports whether the process should keep going.
func (f *Flag) Running() bool { return f.running.Load() }

// Stop flips the flag to stopped. Idempotent.
func (f *Flag) Stop() { f.running.Store(false) }

// WaitForShutdown blocks until SIGINT/SIGTERM, then cancels ctx's parent
// via the returned cancel func and flips flag. Callers should run this in
// the main goroutine (or a dedicated one) and select on ctx.Done()
// elsewhere.
func WaitForShutdown(flag *Flag) (ctx context.Context, cancel context.CancelFunc) {
	ctx, cancel = context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		flag.Stop()
		cancel()
	}()

	return ctx, cancel
}
