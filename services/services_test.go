package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"event-registration/events"
	"event-registration/gateway"
	"event-registration/media"
	"event-registration/models"
	"event-registration/store"
	"event-registration/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test_secret"

type fakeGateway struct {
	mu   sync.Mutex
	n    int
	fail error
}

func (g *fakeGateway) CreateOrder(_ context.Context, receipt string, amountMinor int64, currency string, _ map[string]string) (models.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return models.GatewayOrder{}, g.fail
	}
	g.n++
	return models.GatewayOrder{ID: fmt.Sprintf("order_%d", g.n), Amount: amountMinor, Currency: currency}, nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(orderID, paymentID, signature, testSecret)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(to, subject, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

type fixture struct {
	mem       *store.Memory
	gw        *fakeGateway
	orders    *OrderService
	verifier  *VerificationService
	mailer    *recordingMailer
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	gw := &fakeGateway{}
	mailer := &recordingMailer{}
	pub := &recordingPublisher{}
	v := NewVerificationService(mem.Payments(), mem.Registrations(), gw,
		&media.Local{Root: t.TempDir()}, pub, utils.NewEmailServiceWithMailer(mailer))
	v.Go = func(f func()) { f() }
	return &fixture{
		mem:       mem,
		gw:        gw,
		orders:    NewOrderService(mem.Payments(), mem.Registrations(), gw, ""),
		verifier:  v,
		mailer:    mailer,
		publisher: pub,
	}
}

func orderRequest(aadhar string) models.CreateOrderRequest {
	return models.CreateOrderRequest{
		Amount:    500,
		Name:      "Asha Verma",
		Email:     "asha@example.com",
		MobileNo:  "9876543210",
		AadharNo:  aadhar,
		SportID:   "cricket",
		SportName: "Cricket",
	}
}

func formData(aadhar string) models.FormData {
	return models.FormData{
		Name:           "Asha Verma",
		UniversityName: "State University",
		Branch:         "CSE",
		TeamName:       "Strikers",
		MobileNo:       "9876543210",
		Email:          "asha@example.com",
		AadharNo:       aadhar,
		SportName:      "Cricket",
		SportID:        "cricket",
		SportType:      "team",
		TeamSize:       11,
		Amount:         500,
	}
}

func (f *fixture) paidProof(t *testing.T, aadhar, paymentID string) models.PaymentProof {
	t.Helper()
	resp, err := f.orders.CreateOrder(context.Background(), orderRequest(aadhar))
	require.NoError(t, err)
	return models.PaymentProof{
		OrderID:   resp.Order.ID,
		PaymentID: paymentID,
		Signature: gateway.Sign(resp.Order.ID, paymentID, testSecret),
	}
}

func TestCreateOrder_CreatesOneCreatedOrder(t *testing.T) {
	f := newFixture(t)

	resp, err := f.orders.CreateOrder(context.Background(), orderRequest("123456789012"))
	require.NoError(t, err)
	assert.Equal(t, "rzp_test_key", resp.Key)
	assert.Equal(t, int64(50000), resp.Order.Amount)
	assert.Equal(t, "INR", resp.Order.Currency)

	orders, err := f.mem.Payments().ListByStatus(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.PaymentStatusCreated, orders[0].Status)
	assert.Equal(t, resp.Order.ID, orders[0].OrderID)
	assert.NotEmpty(t, orders[0].Receipt)
	assert.Nil(t, orders[0].PaymentID)
}

func TestCreateOrder_RejectsRegisteredAadhar(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")
	_, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: proof, Form: formData("123456789012")})
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(context.Background(), orderRequest("123456789012"))
	assert.ErrorIs(t, err, models.ErrDuplicateRegistration)
}

func TestCreateOrder_ValidationFailsBeforeAnyWrite(t *testing.T) {
	f := newFixture(t)
	req := orderRequest("12345")
	req.MobileNo = "12345"

	_, err := f.orders.CreateOrder(context.Background(), req)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Aadhar number must be 12 digits", verr.Fields["aadharNo"])
	assert.Equal(t, "Enter a valid 10 digit mobile number", verr.Fields["mobileNo"])

	orders, _ := f.mem.Payments().ListByStatus(context.Background(), "")
	assert.Empty(t, orders)
}

func TestCreateOrder_GatewayFailureMarksOrderFailed(t *testing.T) {
	f := newFixture(t)
	f.gw.fail = errors.New("gateway unavailable")

	_, err := f.orders.CreateOrder(context.Background(), orderRequest("123456789012"))
	assert.ErrorIs(t, err, models.ErrGateway)

	failed, _ := f.mem.Payments().ListByStatus(context.Background(), models.PaymentStatusFailed)
	assert.Len(t, failed, 1)
	paid, _ := f.mem.Payments().ListByStatus(context.Background(), models.PaymentStatusPaid)
	assert.Empty(t, paid)
}

func TestOrderStatus(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")

	st, err := f.orders.Status(context.Background(), proof.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCreated, st.Status)
	assert.Empty(t, st.RegistrationID)

	_, err = f.orders.Status(context.Background(), "order_missing")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestVerify_MarksOrderPaidAndRegisters(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")

	resp, err := f.verifier.Verify(context.Background(), VerifyInput{
		Proof:    proof,
		Form:     formData("123456789012"),
		Document: &Document{Name: "aadhar.jpg", Reader: strings.NewReader("img")},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RegistrationID)
	assert.False(t, resp.DocumentPending)

	order, err := f.mem.Payments().FindByOrderID(context.Background(), proof.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.Status)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, "pay_1", *order.PaymentID)
	require.NotNil(t, order.RegistrationID)
	assert.Equal(t, resp.RegistrationID, order.RegistrationID.Hex())

	reg, err := f.mem.Registrations().FindByAadhar(context.Background(), "123456789012")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.DocumentURL)

	assert.Len(t, f.mailer.sent, 1)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeRegistrationCompleted, f.publisher.events[0].Type)
}

func TestVerify_SignatureMismatchLeavesOrderCreated(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")
	proof.PaymentID = "pay_2"

	_, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: proof, Form: formData("123456789012")})
	assert.ErrorIs(t, err, models.ErrSignatureMismatch)

	order, _ := f.mem.Payments().FindByOrderID(context.Background(), proof.OrderID)
	assert.Equal(t, models.PaymentStatusCreated, order.Status)
	regs, _ := f.mem.Registrations().List(context.Background())
	assert.Empty(t, regs)
}

func TestVerify_DuplicateDetectedEvenWhenEarlyCheckPassed(t *testing.T) {
	f := newFixture(t)
	first := f.paidProof(t, "123456789012", "pay_1")
	second := f.paidProof(t, "123456789012", "pay_2") // both orders pass the early check

	_, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: first, Form: formData("123456789012")})
	require.NoError(t, err)

	_, err = f.verifier.Verify(context.Background(), VerifyInput{Proof: second, Form: formData("123456789012")})
	assert.ErrorIs(t, err, models.ErrDuplicateRegistration)

	order, _ := f.mem.Payments().FindByOrderID(context.Background(), second.OrderID)
	assert.Equal(t, models.PaymentStatusCreated, order.Status)
}

func TestVerify_WithoutDocumentRecordsGap(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")

	resp, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: proof, Form: formData("123456789012")})
	require.NoError(t, err)
	assert.True(t, resp.DocumentPending)

	reg, err := f.verifier.AttachDocument(context.Background(), proof.OrderID,
		&Document{Name: "../../etc/aadhar.png", Reader: strings.NewReader("img")})
	require.NoError(t, err)
	assert.False(t, reg.DocumentPending)
	assert.NotContains(t, reg.DocumentURL, "..")

	stored, _ := f.mem.Registrations().FindByAadhar(context.Background(), "123456789012")
	assert.False(t, stored.DocumentPending)
}

func TestVerify_ReplayReturnsSameRegistration(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")
	in := VerifyInput{Proof: proof, Form: formData("123456789012")}

	first, err := f.verifier.Verify(context.Background(), in)
	require.NoError(t, err)
	second, err := f.verifier.Verify(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.RegistrationID, second.RegistrationID)
	regs, _ := f.mem.Registrations().List(context.Background())
	assert.Len(t, regs, 1)
	assert.Len(t, f.mailer.sent, 1)
}

func TestVerify_ConcurrentSameAadharRegistersOnce(t *testing.T) {
	f := newFixture(t)
	proofs := []models.PaymentProof{
		f.paidProof(t, "123456789012", "pay_1"),
		f.paidProof(t, "123456789012", "pay_2"),
	}

	var wg sync.WaitGroup
	results := make([]error, len(proofs))
	ids := make([]string, len(proofs))
	for i, p := range proofs {
		wg.Add(1)
		go func(i int, p models.PaymentProof) {
			defer wg.Done()
			resp, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: p, Form: formData("123456789012")})
			results[i] = err
			if resp != nil {
				ids[i] = resp.RegistrationID
			}
		}(i, p)
	}
	wg.Wait()

	regs, _ := f.mem.Registrations().List(context.Background())
	assert.Len(t, regs, 1)

	var ok, dup int
	for i, err := range results {
		switch {
		case err == nil:
			ok++
			assert.Equal(t, regs[0].ID.Hex(), ids[i])
		case errors.Is(err, models.ErrDuplicateRegistration):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)
}

func TestVerify_ConcurrentRetriesOfSameOrderAgree(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")

	var wg sync.WaitGroup
	ids := make([]string, 4)
	errs := make([]error, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: proof, Form: formData("123456789012")})
			errs[i] = err
			if resp != nil {
				ids[i] = resp.RegistrationID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	regs, _ := f.mem.Registrations().List(context.Background())
	assert.Len(t, regs, 1)
}

func TestVerify_LinksRegistrationLeftByInterruptedAttempt(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")
	orphan := models.NewRegistration(formData("123456789012"), proof)
	require.NoError(t, f.mem.Registrations().Create(context.Background(), orphan))

	resp, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: proof, Form: formData("123456789012")})
	require.NoError(t, err)
	assert.Equal(t, orphan.ID.Hex(), resp.RegistrationID)

	order, _ := f.mem.Payments().FindByOrderID(context.Background(), proof.OrderID)
	assert.Equal(t, models.PaymentStatusPaid, order.Status)
}

func TestVerify_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	proof := models.PaymentProof{OrderID: "order_x", PaymentID: "pay_1", Signature: gateway.Sign("order_x", "pay_1", testSecret)}

	_, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: proof, Form: formData("123456789012")})
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestVerify_FormMustMatchOrder(t *testing.T) {
	f := newFixture(t)
	proof := f.paidProof(t, "123456789012", "pay_1")

	_, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: proof, Form: formData("999999999999")})
	assert.True(t, models.IsValidation(err))
}

func TestVerify_FormMustMatchPaidSportAndAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.paidProof(t, "123456789012", "pay_1")

	form := formData("123456789012")
	form.SportID = "athletics"
	form.SportName = "Athletics"
	form.Amount = 2000
	_, err := f.verifier.Verify(ctx, VerifyInput{Proof: proof, Form: form})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "sportId")
	assert.Contains(t, verr.Fields, "amount")

	order, _ := f.mem.Payments().FindByOrderID(ctx, proof.OrderID)
	assert.Equal(t, models.PaymentStatusCreated, order.Status)
	_, err = f.mem.Registrations().FindByAadhar(ctx, "123456789012")
	assert.ErrorIs(t, err, store.ErrNotFound)

	form = formData("123456789012")
	form.SportName = "Cricket (Premium)"
	_, err = f.verifier.Verify(ctx, VerifyInput{Proof: proof, Form: form})
	require.NoError(t, err)

	reg, err := f.mem.Registrations().FindByOrderID(ctx, proof.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "cricket", reg.SportID)
	assert.Equal(t, "Cricket", reg.SportName)
	assert.Equal(t, 500.0, reg.Amount)
}

func TestVerify_ForgedProofIsRejectedBeforeOrderLookup(t *testing.T) {
	f := newFixture(t)
	proof := models.PaymentProof{OrderID: "order_x", PaymentID: "pay_1", Signature: "forged"}

	_, err := f.verifier.Verify(context.Background(), VerifyInput{Proof: proof, Form: formData("123456789012")})
	assert.ErrorIs(t, err, models.ErrSignatureMismatch)
}

type failingMarkPaid struct {
	store.PaymentStore
}

func (failingMarkPaid) MarkPaid(context.Context, string, string, string, primitive.ObjectID) (bool, error) {
	return false, errors.New("write concern timeout")
}

// linkingDelete lets another attempt link the registration just before it is removed
type linkingDelete struct {
	store.RegistrationStore
	payments store.PaymentStore
	proof    models.PaymentProof
}

func (r linkingDelete) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.payments.MarkPaid(ctx, r.proof.OrderID, r.proof.PaymentID, r.proof.Signature, id); err != nil {
		return err
	}
	return r.RegistrationStore.Delete(ctx, id)
}

func TestVerify_RemovalKeepsRegistrationLinkedMeanwhile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.paidProof(t, "123456789012", "pay_1")

	v := NewVerificationService(failingMarkPaid{f.mem.Payments()},
		linkingDelete{RegistrationStore: f.mem.Registrations(), payments: f.mem.Payments(), proof: proof},
		f.gw, &media.Local{Root: t.TempDir()}, nil, utils.NewEmailServiceWithMailer(&recordingMailer{}))
	v.Go = func(fn func()) { fn() }

	_, err := v.Verify(ctx, VerifyInput{Proof: proof, Form: formData("123456789012")})
	require.Error(t, err)

	order, err := f.mem.Payments().FindByOrderID(ctx, proof.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, order.Status)
	require.NotNil(t, order.RegistrationID)

	reg, err := f.mem.Registrations().FindByID(ctx, *order.RegistrationID)
	require.NoError(t, err, "paid order still points at a stored registration")
	assert.Equal(t, "123456789012", reg.AadharNo)
}

func TestCreateOrder_ChecksCatalogFee(t *testing.T) {
	f := newFixture(t)
	f.orders.Sports = f.mem.Sports()
	require.NoError(t, f.mem.Sports().Upsert(context.Background(), &models.Sport{ID: "cricket", Name: "Cricket", Fee: 500}))

	req := orderRequest("123456789012")
	req.Amount = 1
	_, err := f.orders.CreateOrder(context.Background(), req)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Amount does not match the sport fee", verr.Fields["amount"])

	req = orderRequest("123456789012")
	req.SportID = "polo"
	_, err = f.orders.CreateOrder(context.Background(), req)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "sportId")

	orders, _ := f.mem.Payments().ListByStatus(context.Background(), "")
	assert.Empty(t, orders)

	req = orderRequest("123456789012")
	req.SportName = "cricket (typed by payer)"
	_, err = f.orders.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	orders, _ = f.mem.Payments().ListByStatus(context.Background(), "")
	require.Len(t, orders, 1)
	assert.Equal(t, "Cricket", orders[0].SportName)
}
