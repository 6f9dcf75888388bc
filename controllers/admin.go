package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"event-registration/models"
	"event-registration/store"
	"event-registration/utils"
)

// AdminController serves the operator dashboard
type AdminController struct {
	Payments      store.PaymentStore
	Registrations store.RegistrationStore
	Credentials   utils.AdminCredentials
}

// NewAdminController creates a new AdminController
func NewAdminController(payments store.PaymentStore, regs store.RegistrationStore, creds utils.AdminCredentials) *AdminController {
	return &AdminController{Payments: payments, Registrations: regs, Credentials: creds}
}

// Login exchanges operator credentials for a token
func (ac *AdminController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := ac.Credentials.Check(creds.Email, creds.Password); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := utils.GenerateJWT(ac.Credentials.Email, utils.RoleAdmin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ListRegistrations returns every registration, newest first
func (ac *AdminController) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	regs, err := ac.Registrations.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "count": len(regs), "data": regs})
}

// ListPayments returns payment orders, optionally filtered by ?status=
func (ac *AdminController) ListPayments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", models.PaymentStatusCreated, models.PaymentStatusPaid, models.PaymentStatusFailed, models.PaymentStatusRefunded:
	default:
		writeMessage(w, http.StatusBadRequest, "Invalid payment status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orders, err := ac.Payments.ListByStatus(ctx, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "count": len(orders), "data": orders})
}
