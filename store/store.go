// Package store persists payment orders, registrations and the sports catalog.
package store

import (
	"context"
	"errors"

	"event-registration/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write would break a uniqueness rule
	ErrDuplicate = errors.New("store: duplicate key")
)

// PaymentStore holds PaymentOrder rows. Rows are never deleted.
type PaymentStore interface {
	Create(ctx context.Context, order *models.PaymentOrder) error
	AttachGatewayOrder(ctx context.Context, receipt, orderID string) error
	MarkFailed(ctx context.Context, receipt string) error
	FindByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	// MarkPaid moves a created order to paid in a single conditional write.
	// It reports false when the order was not in the created state.
	MarkPaid(ctx context.Context, orderID, paymentID, signature string, registrationID primitive.ObjectID) (bool, error)
	ListByStatus(ctx context.Context, status string) ([]models.PaymentOrder, error)
}

// RegistrationStore holds Registration rows, unique per Aadhar number and per order
type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error)
	FindByAadhar(ctx context.Context, aadharNo string) (*models.Registration, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error)
	AttachDocument(ctx context.Context, id primitive.ObjectID, url string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context) ([]models.Registration, error)
}

// SportStore holds the catalog of sports open for registration, keyed by sport id
type SportStore interface {
	Upsert(ctx context.Context, sport *models.Sport) error
	Find(ctx context.Context, id string) (*models.Sport, error)
	List(ctx context.Context) ([]models.Sport, error)
	Delete(ctx context.Context, id string) error
}
