package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"event-registration/controllers"
	"event-registration/events"
	"event-registration/gateway"
	"event-registration/media"
	"event-registration/middleware"
	"event-registration/models"
	"event-registration/services"
	"event-registration/store"
	"event-registration/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "route_secret"

type stubGateway struct{ n int }

func (g *stubGateway) CreateOrder(_ context.Context, _ string, amountMinor int64, currency string, _ map[string]string) (models.GatewayOrder, error) {
	g.n++
	return models.GatewayOrder{ID: fmt.Sprintf("order_%d", g.n), Amount: amountMinor, Currency: currency}, nil
}

func (g *stubGateway) KeyID() string { return "rzp_test" }

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(orderID, paymentID, signature, secret)
}

func newRouter(t *testing.T) (*mux.Router, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	gw := &stubGateway{}
	verifier := services.NewVerificationService(mem.Payments(), mem.Registrations(), gw,
		&media.Local{Root: t.TempDir()}, events.Nop{}, utils.NewEmailServiceWithMailer(nil))
	verifier.Go = func(f func()) { f() }

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	utils.JwtKey = []byte("route-test")
	t.Cleanup(func() { utils.JwtKey = nil })

	require.NoError(t, mem.Sports().Upsert(context.Background(), &models.Sport{ID: "chess", Name: "Chess", Fee: 500}))
	orders := services.NewOrderService(mem.Payments(), mem.Registrations(), gw, "INR")
	orders.Sports = mem.Sports()

	router := mux.NewRouter()
	RegisterRoutes(router,
		controllers.NewPaymentController(orders, verifier),
		controllers.NewSportController(mem.Sports()),
		controllers.NewAdminController(mem.Payments(), mem.Registrations(), utils.AdminCredentials{Email: "ops@example.com", PasswordHash: string(hash)}),
		middleware.NewRateLimiter(1000, 1000),
	)
	return router, mem
}

func createOrderBody(aadhar string) string {
	return fmt.Sprintf(`{"amount":500,"name":"Asha Verma","email":"asha@example.com","mobileNo":"9876543210","aadharNo":%q,"sportId":"chess","sportName":"Chess"}`, aadhar)
}

func verifyRequest(t *testing.T, proof models.PaymentProof, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("razorpay_order_id", proof.OrderID))
	require.NoError(t, mw.WriteField("razorpay_payment_id", proof.PaymentID))
	require.NoError(t, mw.WriteField("razorpay_signature", proof.Signature))
	require.NoError(t, mw.WriteField("formData", `{"name":"Asha Verma","universityName":"State University","branch":"CSE",
		"mobileNo":"9876543210","email":"asha@example.com","aadharNo":"123456789012","sportId":"chess","sportName":"Chess",
		"sportType":"individual","teamSize":1,"amount":500}`))
	if withFile {
		fw, err := mw.CreateFormFile("aadharPhoto", "aadhar.jpg")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("jpeg"))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/payment/verify", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func adminToken(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"email":"ops@example.com","password":"s3cret!"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var login map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	return login["token"]
}

func TestHealth(t *testing.T) {
	router, _ := newRouter(t)
	rec := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrderThenVerify(t *testing.T) {
	router, mem := newRouter(t)

	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/payment/create-order", strings.NewReader(createOrderBody("123456789012"))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created models.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "rzp_test", created.Key)
	assert.Equal(t, int64(50000), created.Order.Amount)

	proof := models.PaymentProof{OrderID: created.Order.ID, PaymentID: "pay_1", Signature: gateway.Sign(created.Order.ID, "pay_1", secret)}
	rec = do(router, verifyRequest(t, proof, true))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified models.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))
	assert.NotEmpty(t, verified.RegistrationID)

	rec = do(router, httptest.NewRequest(http.MethodGet, "/api/payment/"+created.Order.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.PaymentStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.PaymentStatusPaid, status.Status)
	assert.Equal(t, verified.RegistrationID, status.RegistrationID)

	// same Aadhar again is rejected before a new order is created
	rec = do(router, httptest.NewRequest(http.MethodPost, "/api/payment/create-order", strings.NewReader(createOrderBody("123456789012"))))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already registered")

	orders, _ := mem.Payments().ListByStatus(context.Background(), "")
	assert.Len(t, orders, 1)
}

func TestVerify_BadSignatureIs400(t *testing.T) {
	router, _ := newRouter(t)
	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/payment/create-order", strings.NewReader(createOrderBody("123456789012"))))
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	proof := models.PaymentProof{OrderID: created.Order.ID, PaymentID: "pay_1", Signature: "deadbeef"}
	rec = do(router, verifyRequest(t, proof, false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid signature")
}

func TestVerify_WithoutFileThenUploadDocument(t *testing.T) {
	router, mem := newRouter(t)
	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/payment/create-order", strings.NewReader(createOrderBody("123456789012"))))
	var created models.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	proof := models.PaymentProof{OrderID: created.Order.ID, PaymentID: "pay_1", Signature: gateway.Sign(created.Order.ID, "pay_1", secret)}
	rec = do(router, verifyRequest(t, proof, false))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"documentPending":true`)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("aadharPhoto", "late.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/payment/"+created.Order.ID+"/document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = do(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reg, err := mem.Registrations().FindByAadhar(context.Background(), "123456789012")
	require.NoError(t, err)
	assert.False(t, reg.DocumentPending)
}

func TestCreateOrder_ValidationIs400(t *testing.T) {
	router, _ := newRouter(t)
	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/payment/create-order", strings.NewReader(`{"amount":500,"name":"A"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Name must be at least 3 characters")
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router, _ := newRouter(t)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/api/registrations", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(router, httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"email":"ops@example.com","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := adminToken(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/payments?status=paid", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = do(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/payments?status=bogus", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = do(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSportsCatalog(t *testing.T) {
	router, _ := newRouter(t)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/api/sports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"chess"`)

	rec = do(router, httptest.NewRequest(http.MethodGet, "/api/sports/polo", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// changing the catalog needs an admin token
	rec = do(router, httptest.NewRequest(http.MethodPut, "/api/admin/sports/polo", strings.NewReader(`{"name":"Polo","fee":900}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := adminToken(t, router)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/sports/polo", strings.NewReader(`{"name":"Polo","fee":900}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = do(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPut, "/api/admin/sports/free", strings.NewReader(`{"name":"Free","fee":0}`))
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, do(router, req).Code)

	rec = do(router, httptest.NewRequest(http.MethodGet, "/api/sports/polo", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/sports/polo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, do(router, req).Code)
}

func TestCreateOrder_WrongFeeIs400(t *testing.T) {
	router, _ := newRouter(t)
	body := strings.Replace(createOrderBody("123456789012"), `"amount":500`, `"amount":1`, 1)
	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/payment/create-order", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Amount does not match the sport fee")
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 1)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	assert.Equal(t, http.StatusOK, do(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}
