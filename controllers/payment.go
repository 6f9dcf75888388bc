// controllers/payment.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"event-registration/models"
	"event-registration/services"

	"github.com/gorilla/mux"
)

const maxUploadSize = 10 << 20

// PaymentController handles payment order and verification requests
type PaymentController struct {
	Orders   *services.OrderService
	Verifier *services.VerificationService
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(orders *services.OrderService, verifier *services.VerificationService) *PaymentController {
	return &PaymentController{Orders: orders, Verifier: verifier}
}

// CreateOrder creates a payment order for a registration
func (pc *PaymentController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	resp, err := pc.Orders.CreateOrder(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// VerifyPayment checks the gateway proof and records the registration
func (pc *PaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	form, err := models.ParseFormData(r.FormValue("formData"))
	if err != nil {
		writeError(w, err)
		return
	}
	in := services.VerifyInput{
		Proof: models.PaymentProof{
			OrderID:   r.FormValue("razorpay_order_id"),
			PaymentID: r.FormValue("razorpay_payment_id"),
			Signature: r.FormValue("razorpay_signature"),
		},
		Form: form,
	}

	file, header, err := r.FormFile("aadharPhoto")
	switch {
	case err == nil:
		defer file.Close()
		in.Document = &services.Document{Name: header.Filename, Reader: file}
	case !errors.Is(err, http.ErrMissingFile):
		writeMessage(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	resp, err := pc.Verifier.Verify(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPaymentStatus returns the status of a payment order
func (pc *PaymentController) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp, err := pc.Orders.Status(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UploadDocument attaches an identity document to a registration saved without one
func (pc *PaymentController) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("aadharPhoto")
	if err != nil {
		writeError(w, models.ErrNoDocument)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	reg, err := pc.Verifier.AttachDocument(ctx, mux.Vars(r)["orderId"], &services.Document{Name: header.Filename, Reader: file})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"message":        "Document uploaded",
		"registrationId": reg.ID.Hex(),
	})
}
