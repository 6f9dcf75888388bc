package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"event-registration/models"
	"event-registration/store"

	"github.com/gorilla/mux"
)

// SportController handles the sports catalog
type SportController struct {
	Sports store.SportStore
}

// NewSportController creates a new SportController
func NewSportController(sports store.SportStore) *SportController {
	return &SportController{Sports: sports}
}

// GetSports lists every sport open for registration
func (sc *SportController) GetSports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	sports, err := sc.Sports.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": sports})
}

// GetSportByID retrieves a single sport
func (sc *SportController) GetSportByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sport, err := sc.Sports.Find(ctx, mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Sport not found")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sport)
}

// PutSport creates or replaces a sport (Admin only)
func (sc *SportController) PutSport(w http.ResponseWriter, r *http.Request) {
	var sport models.Sport
	if err := json.NewDecoder(r.Body).Decode(&sport); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid input")
		return
	}
	sport.ID = mux.Vars(r)["id"]
	if err := sport.Validate(); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := sc.Sports.Upsert(ctx, &sport); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sport)
}

// DeleteSport closes registration for a sport (Admin only)
func (sc *SportController) DeleteSport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := sc.Sports.Delete(ctx, mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Sport not found")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
