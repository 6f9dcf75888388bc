package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"event-registration/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": msg})
}

// writeError maps domain errors onto status codes. Anything unrecognised is a 500
// so clients treat it as retryable.
func writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": verr.Error(),
			"errors":  verr.Fields,
		})
	case errors.Is(err, models.ErrSignatureMismatch):
		writeMessage(w, http.StatusBadRequest, "Payment verification failed: invalid signature")
	case errors.Is(err, models.ErrDuplicateRegistration):
		writeMessage(w, http.StatusConflict, "This Aadhar number is already registered")
	case errors.Is(err, models.ErrOrderNotFound):
		writeMessage(w, http.StatusNotFound, "Payment order not found")
	case errors.Is(err, models.ErrOrderNotPayable):
		writeMessage(w, http.StatusConflict, "Payment order can no longer be completed")
	case errors.Is(err, models.ErrNoDocument):
		writeMessage(w, http.StatusBadRequest, "Please upload Aadhar card photo")
	case errors.Is(err, models.ErrGateway):
		slog.Error("gateway failure", "err", err)
		writeMessage(w, http.StatusBadGateway, "Payment service unavailable, please try again")
	default:
		slog.Error("request failed", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
