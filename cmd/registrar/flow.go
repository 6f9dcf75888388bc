package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"event-registration/checkout"
	"event-registration/client"
	"event-registration/paymentflow"
)

type flowRunner struct {
	ctl    *paymentflow.Controller
	bridge *checkout.BrowserBridge
	done   chan paymentflow.Snapshot
	in     *bufio.Reader
	out    io.Writer
}

func newFlowRunner(cfg cliConfig, guard paymentflow.Guard, in io.Reader, out io.Writer) (*flowRunner, error) {
	store, err := cfg.sessionStore()
	if err != nil {
		return nil, err
	}
	api := cfg.apiClient()

	bridge := checkout.NewBrowserBridge(cfg.Checkout.ScriptURL, func(url string) error {
		if err := openBrowser(url); err != nil {
			fmt.Fprintf(out, "Open %s in your browser to pay.\n", url)
		}
		return nil
	})
	if cfg.Checkout.Addr != "" {
		bridge.Addr = cfg.Checkout.Addr
	}

	r := &flowRunner{
		bridge: bridge,
		done:   make(chan paymentflow.Snapshot, 1),
		in:     bufio.NewReader(in),
		out:    out,
	}
	r.ctl = paymentflow.New(paymentflow.Config{
		API:       api,
		Readiness: client.NewProber(api),
		Bridge:    bridge,
		Store:     store,
		Guard:     guard,
		ReadyWait: cfg.ReadyWait,
		OnDone:    func(s paymentflow.Snapshot) { r.done <- s },
	})
	r.ctl.Subscribe(renderer{out: out}.show)
	return r, nil
}

// loadGateway makes the checkout script available before a payment is started
func (r *flowRunner) loadGateway(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err := r.bridge.Load(ctx); err != nil {
		fmt.Fprintf(r.out, "Could not reach the payment gateway: %v\n", err)
	}
}

// settle offers the overlay actions until the flow succeeds or the user closes it
func (r *flowRunner) settle(ctx context.Context) error {
	for {
		snap := r.ctl.Snapshot()
		switch snap.State {
		case paymentflow.Success:
			select {
			case <-r.done:
			case <-time.After(paymentflow.SuccessDelay + time.Second):
			}
			return nil
		case paymentflow.Failed, paymentflow.Cancelled:
		default:
			return nil
		}

		fmt.Fprintf(r.out, "%s? [y/N] ", snap.RetryMode.Label())
		line, err := r.in.ReadString('\n')
		if err != nil && line == "" {
			return r.closeHint(snap)
		}
		if !strings.EqualFold(strings.TrimSpace(line), "y") {
			return r.closeHint(snap)
		}

		if snap.RetryMode == paymentflow.RetryVerify {
			r.ctl.RetrySave(ctx)
			continue
		}
		if err := r.ctl.RetryPayment(ctx); err != nil {
			return err
		}
	}
}

func (r *flowRunner) closeHint(snap paymentflow.Snapshot) error {
	if snap.RetryMode == paymentflow.RetryVerify && snap.Message != paymentflow.MsgAlreadyRegistered {
		fmt.Fprintln(r.out, "Your payment details are kept. Run `registrar resume` to save the registration.")
	}
	return nil
}
