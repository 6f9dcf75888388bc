package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"event-registration/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory keeps orders, registrations and the sports catalog in process memory with the same
// uniqueness rules as the Mongo indexes. Used with STORE_DRIVER=memory and in tests.
type Memory struct {
	mu            sync.Mutex
	orders        map[string]*models.PaymentOrder // by receipt
	registrations map[primitive.ObjectID]*models.Registration
	sports        map[string]*models.Sport
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		orders:        map[string]*models.PaymentOrder{},
		registrations: map[primitive.ObjectID]*models.Registration{},
		sports:        map[string]*models.Sport{},
	}
}

// Payments returns the PaymentStore view of m
func (m *Memory) Payments() PaymentStore { return memoryPayments{m} }

// Registrations returns the RegistrationStore view of m
func (m *Memory) Registrations() RegistrationStore { return memoryRegistrations{m} }

type memoryPayments struct{ m *Memory }

type memoryRegistrations struct{ m *Memory }

func (p memoryPayments) Create(_ context.Context, order *models.PaymentOrder) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if _, ok := p.m.orders[order.Receipt]; ok {
		return ErrDuplicate
	}
	if order.OrderID != "" && p.m.orderLocked(order.OrderID) != nil {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	order.ID = primitive.NewObjectID()
	order.CreatedAt, order.UpdatedAt = now, now
	if order.Status == "" {
		order.Status = models.PaymentStatusCreated
	}
	cp := *order
	p.m.orders[order.Receipt] = &cp
	return nil
}

func (m *Memory) orderLocked(orderID string) *models.PaymentOrder {
	for _, o := range m.orders {
		if o.OrderID == orderID {
			return o
		}
	}
	return nil
}

func (p memoryPayments) AttachGatewayOrder(_ context.Context, receipt, orderID string) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	o, ok := p.m.orders[receipt]
	if !ok {
		return ErrNotFound
	}
	if other := p.m.orderLocked(orderID); other != nil && other != o {
		return ErrDuplicate
	}
	o.OrderID = orderID
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (p memoryPayments) MarkFailed(_ context.Context, receipt string) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if o, ok := p.m.orders[receipt]; ok && o.Status == models.PaymentStatusCreated {
		o.Status = models.PaymentStatusFailed
		o.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (p memoryPayments) FindByOrderID(_ context.Context, orderID string) (*models.PaymentOrder, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	o := p.m.orderLocked(orderID)
	if o == nil {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (p memoryPayments) MarkPaid(_ context.Context, orderID, paymentID, signature string, registrationID primitive.ObjectID) (bool, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	o := p.m.orderLocked(orderID)
	if o == nil || o.Status != models.PaymentStatusCreated {
		return false, nil
	}
	o.Status = models.PaymentStatusPaid
	o.PaymentID = &paymentID
	o.Signature = &signature
	o.RegistrationID = &registrationID
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (p memoryPayments) ListByStatus(_ context.Context, status string) ([]models.PaymentOrder, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	out := []models.PaymentOrder{}
	for _, o := range p.m.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memoryRegistrations) Create(_ context.Context, reg *models.Registration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.registrations {
		if existing.AadharNo == reg.AadharNo || existing.OrderID == reg.OrderID {
			return ErrDuplicate
		}
	}
	if reg.ID.IsZero() {
		reg.ID = primitive.NewObjectID()
	}
	cp := *reg
	r.m.registrations[reg.ID] = &cp
	return nil
}

func (r memoryRegistrations) find(match func(*models.Registration) bool) (*models.Registration, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, reg := range r.m.registrations {
		if match(reg) {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryRegistrations) FindByID(_ context.Context, id primitive.ObjectID) (*models.Registration, error) {
	return r.find(func(reg *models.Registration) bool { return reg.ID == id })
}

func (r memoryRegistrations) FindByAadhar(_ context.Context, aadharNo string) (*models.Registration, error) {
	return r.find(func(reg *models.Registration) bool { return reg.AadharNo == aadharNo })
}

func (r memoryRegistrations) FindByOrderID(_ context.Context, orderID string) (*models.Registration, error) {
	return r.find(func(reg *models.Registration) bool { return reg.OrderID == orderID })
}

func (r memoryRegistrations) AttachDocument(_ context.Context, id primitive.ObjectID, url string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reg, ok := r.m.registrations[id]
	if !ok {
		return ErrNotFound
	}
	reg.DocumentURL = url
	reg.DocumentPending = false
	reg.UpdatedAt = time.Now().UTC()
	return nil
}

func (r memoryRegistrations) Delete(_ context.Context, id primitive.ObjectID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.registrations, id)
	return nil
}

func (r memoryRegistrations) List(_ context.Context) ([]models.Registration, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Registration, 0, len(r.m.registrations))
	for _, reg := range r.m.registrations {
		out = append(out, *reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
