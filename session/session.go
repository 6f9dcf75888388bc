// Package session keeps proof of payment across client restarts until the backend has
// reconciled it.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"event-registration/models"
)

// PendingKey is the key the pending payload is stored under
const PendingKey = "pending_verification"

// Payload is everything needed to retry verification without the user
type Payload struct {
	PaymentData models.PaymentProof `json:"paymentData"`
	FormData    models.FormData     `json:"formData"`
	CreatedAt   int64               `json:"createdAt"` // unix millis
}

// Store persists at most one pending payload. Load returns nil, nil when nothing usable is stored.
type Store interface {
	Load(ctx context.Context) (*Payload, error)
	Save(ctx context.Context, p Payload) error
	Clear(ctx context.Context) error
}

// decode treats unreadable or incomplete data as absent
func decode(data []byte) *Payload {
	if len(data) == 0 {
		return nil
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	if !p.PaymentData.Complete() {
		return nil
	}
	return &p
}

// Memory lives for the lifetime of the process
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory creates an empty Memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (*Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(m.data), nil
}

func (m *Memory) Save(_ context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// SetRaw stores bytes as-is. Used to simulate a corrupted entry.
func (m *Memory) SetRaw(data []byte) {
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
}
