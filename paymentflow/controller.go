package paymentflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"event-registration/checkout"
	"event-registration/client"
	"event-registration/models"
	"event-registration/session"
)

// Delays before the success screen hands control back
const (
	SuccessDelay      = 2 * time.Second
	RetrySuccessDelay = 1500 * time.Millisecond
)

// ErrNoPreviousAttempt is returned by RetryPayment before anything was submitted
var ErrNoPreviousAttempt = errors.New("nothing to retry, submit the form first")

// ErrGatewayNotLoaded is returned by Submit while the checkout script is unavailable
var ErrGatewayNotLoaded = errors.New(MsgGatewayNotLoaded)

// API is the subset of the backend client the flow needs
type API interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error)
	Verify(ctx context.Context, proof models.PaymentProof, form models.FormData, doc *client.Document) (*models.VerifyResponse, error)
}

// Readiness waits for the backend to wake up
type Readiness interface {
	EnsureReady(ctx context.Context, maxWait time.Duration) bool
}

// Guard blocks the user from leaving while a payment is in progress
type Guard interface {
	Engage()
	Release()
}

type nopGuard struct{}

func (nopGuard) Engage()  {}
func (nopGuard) Release() {}

// Document is the identity document picked on the form. It is buffered so every
// verification attempt can resend it.
type Document struct {
	Name string
	Data []byte
}

// ReadDocument buffers r into a Document
func ReadDocument(name string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return &Document{Name: name, Data: data}, nil
}

func (d *Document) upload() *client.Document {
	if d == nil {
		return nil
	}
	return &client.Document{Name: d.Name, Reader: bytes.NewReader(d.Data)}
}

// Snapshot is the observable state of the flow
type Snapshot struct {
	State          State
	RetryMode      RetryMode
	Message        string
	Errors         map[string]string
	RegistrationID string
	// DocumentPending is set when the registration was saved without the identity document
	DocumentPending bool
}

// Config wires a Controller to its collaborators
type Config struct {
	API       API
	Readiness Readiness
	Bridge    checkout.Bridge
	Store     session.Store
	Guard     Guard

	ReadyWait time.Duration
	Backoff   Backoff

	// OnDone runs once the success screen has been shown for its delay
	OnDone func(Snapshot)

	Sleep     func(ctx context.Context, d time.Duration) error
	AfterFunc func(d time.Duration, f func())
	Now       func() time.Time
}

// Controller is the payment flow state machine. Submit, RetryPayment and RetrySave block
// until the flow reaches a state that needs the user.
type Controller struct {
	cfg Config

	mu        sync.Mutex
	snap      Snapshot
	epoch     uint64
	pending   *session.Payload
	last      *attempt
	listeners []func(Snapshot)
}

type attempt struct {
	sport models.Sport
	form  models.RegistrationForm
	doc   *Document
}

// New creates a Controller in the idle state
func New(cfg Config) *Controller {
	if cfg.Guard == nil {
		cfg.Guard = nopGuard{}
	}
	if cfg.ReadyWait <= 0 {
		cfg.ReadyWait = client.DefaultReadyWait
	}
	if cfg.Backoff.Attempts <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Sleep == nil {
		cfg.Sleep = client.SleepContext
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{cfg: cfg}
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers fn to be called after every state change
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// begin starts a new generation. Results from older generations are dropped.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return c.epoch
}

// set applies next if epoch is still current and notifies listeners
func (c *Controller) set(epoch uint64, next Snapshot) bool {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		slog.Debug("dropping stale flow result", "state", next.State)
		return false
	}
	prev := c.snap.State
	c.snap = next
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()

	switch {
	case !prev.InProgress() && next.State.InProgress():
		c.cfg.Guard.Engage()
	case prev.InProgress() && !next.State.InProgress():
		c.cfg.Guard.Release()
	}
	for _, fn := range listeners {
		fn(next)
	}
	return true
}

// Init loads a payment proof left behind by an interrupted run. If one exists the
// flow moves straight to failed so the user is offered Retry Save.
func (c *Controller) Init(ctx context.Context) error {
	if c.Snapshot().State != Idle {
		return nil
	}
	p, err := c.cfg.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load pending payment: %w", err)
	}
	if p == nil {
		return nil
	}

	epoch := c.begin()
	c.mu.Lock()
	c.pending = p
	c.mu.Unlock()
	c.set(epoch, Snapshot{State: Failed, RetryMode: RetryVerify, Message: MsgResumeFound})
	return nil
}

// Submit validates the form and runs the whole payment flow. A validation error or an
// unloaded gateway is returned and leaves the flow idle.
func (c *Controller) Submit(ctx context.Context, sport models.Sport, form models.RegistrationForm, doc *Document) error {
	form = form.Normalize()
	if err := form.Validate(sport, doc != nil); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.mu.Lock()
			c.snap.Errors = verr.Fields
			c.mu.Unlock()
		}
		return err
	}
	if !c.cfg.Bridge.Loaded() {
		return ErrGatewayNotLoaded
	}

	a := &attempt{sport: sport, form: form, doc: doc}
	c.mu.Lock()
	c.last = a
	c.mu.Unlock()

	c.pay(ctx, a)
	return nil
}

// RetryPayment starts a new order for the last submitted form
func (c *Controller) RetryPayment(ctx context.Context) error {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	if last == nil {
		return ErrNoPreviousAttempt
	}
	if !c.cfg.Bridge.Loaded() {
		return ErrGatewayNotLoaded
	}
	c.pay(ctx, last)
	return nil
}

func (c *Controller) pay(ctx context.Context, a *attempt) {
	epoch := c.begin()
	fail := func(mode RetryMode, msg string) {
		c.set(epoch, Snapshot{State: Failed, RetryMode: mode, Message: msg})
	}

	c.set(epoch, Snapshot{State: CreatingOrder, RetryMode: RetryPayment})

	if !c.cfg.Readiness.EnsureReady(ctx, c.cfg.ReadyWait) {
		fail(RetryPayment, MsgServerStarting)
		return
	}

	order, err := c.cfg.API.CreateOrder(ctx, models.NewCreateOrderRequest(a.form, a.sport))
	if err != nil {
		fail(RetryPayment, userMessage(err, "Failed to create order"))
		return
	}

	if !c.set(epoch, Snapshot{State: AwaitingPayment, RetryMode: RetryPayment}) {
		return
	}

	formData := models.NewFormData(a.form, a.sport)
	outcomes, err := c.cfg.Bridge.Open(ctx, checkout.NewOptions(order.Order, order.Key, formData))
	if err != nil {
		slog.Error("open checkout", "err", err)
		fail(RetryPayment, MsgSomethingWrong)
		return
	}

	outcome, ok := <-outcomes
	if !ok || outcome.Dismissed || outcome.Proof == nil {
		c.set(epoch, Snapshot{State: Cancelled, RetryMode: RetryPayment, Message: MsgCancelled})
		return
	}

	// persist before any network call so a crash from here on can be resumed
	pending := session.Payload{PaymentData: *outcome.Proof, FormData: formData, CreatedAt: c.cfg.Now().UnixMilli()}
	c.mu.Lock()
	c.pending = &pending
	c.mu.Unlock()
	if err := c.cfg.Store.Save(ctx, pending); err != nil {
		slog.Error("persist pending payment", "order_id", pending.PaymentData.OrderID, "err", err)
	}

	if !c.set(epoch, Snapshot{State: Verifying, RetryMode: RetryVerify}) {
		return
	}
	c.finishVerify(ctx, epoch, pending, a.doc, SuccessDelay)
}

// RetrySave resubmits the pending payment proof. The document cannot be recovered
// after a restart, so it is sent without one and the backend records the gap.
func (c *Controller) RetrySave(ctx context.Context) {
	epoch := c.begin()

	c.mu.Lock()
	pending := c.pending
	var doc *Document
	if c.last != nil && pending != nil && c.last.form.AadharNo == pending.FormData.AadharNo {
		doc = c.last.doc
	}
	c.mu.Unlock()

	if pending == nil {
		p, err := c.cfg.Store.Load(ctx)
		if err != nil {
			slog.Error("load pending payment", "err", err)
		}
		pending = p
	}
	if pending == nil {
		c.set(epoch, Snapshot{State: Failed, RetryMode: RetryPayment, Message: MsgNothingToVerify})
		return
	}

	c.set(epoch, Snapshot{State: Verifying, RetryMode: RetryVerify})
	c.finishVerify(ctx, epoch, *pending, doc, RetrySuccessDelay)
}

func (c *Controller) finishVerify(ctx context.Context, epoch uint64, pending session.Payload, doc *Document, delay time.Duration) {
	resp, err := c.verifyWithRetry(ctx, pending, doc)
	if err != nil {
		c.set(epoch, Snapshot{State: Failed, RetryMode: RetryVerify, Message: userMessage(err, MsgVerifyFailed)})
		return
	}

	if err := c.cfg.Store.Clear(ctx); err != nil {
		slog.Error("clear pending payment", "err", err)
	}
	done := Snapshot{State: Success, RetryMode: RetryVerify, RegistrationID: resp.RegistrationID, DocumentPending: resp.DocumentPending}
	c.mu.Lock()
	if epoch == c.epoch {
		c.pending = nil
	}
	c.mu.Unlock()
	if !c.set(epoch, done) {
		return
	}

	c.cfg.AfterFunc(delay, func() {
		if c.resetIf(epoch) && c.cfg.OnDone != nil {
			c.cfg.OnDone(done)
		}
	})
}

// errSaveUnreachable is the outcome once every transient retry failed
var errSaveUnreachable = errors.New(MsgSaveUnreachable)

func (c *Controller) verifyWithRetry(ctx context.Context, pending session.Payload, doc *Document) (*models.VerifyResponse, error) {
	if !c.cfg.Readiness.EnsureReady(ctx, c.cfg.ReadyWait) {
		return nil, errors.New(MsgServerStarting)
	}

	delay := c.cfg.Backoff.Initial
	for attempt := 1; attempt <= c.cfg.Backoff.Attempts; attempt++ {
		resp, err := c.cfg.API.Verify(ctx, pending.PaymentData, pending.FormData, doc.upload())
		if err == nil {
			return resp, nil
		}
		if !Transient(err) {
			return nil, err
		}
		slog.Warn("verification attempt failed", "attempt", attempt, "order_id", pending.PaymentData.OrderID, "err", err)

		if attempt < c.cfg.Backoff.Attempts {
			if err := c.cfg.Sleep(ctx, delay); err != nil {
				break
			}
			delay = c.cfg.Backoff.Next(delay)
		}
	}
	return nil, errSaveUnreachable
}

// Reset clears the flow and forgets any pending payment proof
func (c *Controller) Reset(ctx context.Context) error {
	epoch := c.begin()
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
	c.set(epoch, Snapshot{State: Idle, RetryMode: RetryPayment})
	return c.cfg.Store.Clear(ctx)
}

func (c *Controller) resetIf(epoch uint64) bool {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return false
	}
	c.epoch++
	next := c.epoch
	c.mu.Unlock()
	c.set(next, Snapshot{State: Idle, RetryMode: RetryPayment})
	return true
}
