package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

const leaveWarning = "Payment is processing. Please do not go back."

// interruptGuard swallows Ctrl-C while a payment is in progress and cancels the
// command otherwise. SIGTERM always cancels.
type interruptGuard struct {
	cancel context.CancelFunc
	out    io.Writer

	mu      sync.Mutex
	engaged bool
}

func newInterruptGuard(cancel context.CancelFunc, out io.Writer) *interruptGuard {
	return &interruptGuard{cancel: cancel, out: out}
}

func (g *interruptGuard) Engage() {
	g.mu.Lock()
	g.engaged = true
	g.mu.Unlock()
}

func (g *interruptGuard) Release() {
	g.mu.Lock()
	g.engaged = false
	g.mu.Unlock()
}

// handle reacts to one signal and reports whether it was swallowed
func (g *interruptGuard) handle(sig os.Signal) bool {
	g.mu.Lock()
	engaged := g.engaged
	g.mu.Unlock()

	if engaged && sig == os.Interrupt {
		fmt.Fprintln(g.out, "\n"+leaveWarning)
		return true
	}
	g.cancel()
	return false
}

func (g *interruptGuard) watch(sigs <-chan os.Signal) {
	for sig := range sigs {
		g.handle(sig)
	}
}

// listen routes the given signals to the guard until stop is called
func (g *interruptGuard) listen(signals ...os.Signal) (stop func()) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	go g.watch(ch)
	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
