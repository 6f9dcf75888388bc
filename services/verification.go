package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"event-registration/events"
	"event-registration/gateway"
	"event-registration/media"
	"event-registration/models"
	"event-registration/store"
	"event-registration/utils"

	"github.com/shopspring/decimal"
)

const documentFolder = "aadhar"

// Document is an uploaded identity document
type Document struct {
	Name   string
	Reader io.Reader
}

// VerifyInput is everything a verify request carries
type VerifyInput struct {
	Proof    models.PaymentProof
	Form     models.FormData
	Document *Document // nil when the client could not resend the file
}

// VerificationService turns a gateway payment proof into a registration
type VerificationService struct {
	Payments      store.PaymentStore
	Registrations store.RegistrationStore
	Gateway       gateway.Gateway
	Media         media.Storage
	Events        events.Publisher
	Email         *utils.EmailService
	// Go runs post-registration notifications
	Go func(func())
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(payments store.PaymentStore, regs store.RegistrationStore, gw gateway.Gateway, storage media.Storage, pub events.Publisher, email *utils.EmailService) *VerificationService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &VerificationService{
		Payments:      payments,
		Registrations: regs,
		Gateway:       gw,
		Media:         storage,
		Events:        pub,
		Email:         email,
		Go:            func(f func()) { go f() },
	}
}

// Verify checks the proof signature, re-checks Aadhar uniqueness at write time,
// stores the document when present and records the registration. The order only
// becomes paid in the final conditional write, so any earlier failure leaves it
// created. Replaying a proof that was already reconciled returns the same
// registration.
func (s *VerificationService) Verify(ctx context.Context, in VerifyInput) (*models.VerifyResponse, error) {
	if !in.Proof.Complete() {
		return nil, &models.ValidationError{Fields: map[string]string{"payment": "Missing payment details"}}
	}
	if err := in.Form.Validate(); err != nil {
		return nil, err
	}

	if !s.Gateway.VerifySignature(in.Proof.OrderID, in.Proof.PaymentID, in.Proof.Signature) {
		slog.Warn("payment signature mismatch", "order_id", in.Proof.OrderID, "payment_id", in.Proof.PaymentID)
		return nil, models.ErrSignatureMismatch
	}

	order, err := s.Payments.FindByOrderID(ctx, in.Proof.OrderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load payment order: %w", err)
	}

	switch order.Status {
	case models.PaymentStatusPaid:
		return s.replay(order, in.Proof)
	case models.PaymentStatusCreated:
	default:
		return nil, models.ErrOrderNotPayable
	}
	if err := matchOrder(order, in.Form); err != nil {
		return nil, err
	}

	existing, err := s.Registrations.FindByAadhar(ctx, in.Form.AadharNo)
	switch {
	case err == nil && existing.OrderID == in.Proof.OrderID:
		// an earlier attempt created the registration but never marked the order paid
		return s.link(ctx, existing, in.Proof)
	case err == nil:
		return nil, models.ErrDuplicateRegistration
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("check existing registration: %w", err)
	}

	reg := models.NewRegistration(in.Form, in.Proof)
	// what was paid for is what gets registered
	reg.SportID = order.SportID
	reg.SportName = order.SportName
	reg.Amount = order.Amount
	if in.Document != nil && in.Document.Reader != nil {
		name := fmt.Sprintf("%s_%s", in.Proof.OrderID, media.SafeName(in.Document.Name))
		url, err := s.Media.Save(ctx, documentFolder, name, in.Document.Reader)
		if err != nil {
			slog.Warn("document upload failed, registering without it", "order_id", in.Proof.OrderID, "err", err)
		} else {
			reg.DocumentURL = url
			reg.DocumentPending = false
		}
	}

	if err := s.Registrations.Create(ctx, reg); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("save registration: %w", err)
		}
		// a concurrent attempt for the same order may have won the insert
		other, findErr := s.Registrations.FindByOrderID(ctx, in.Proof.OrderID)
		if findErr == nil && other.AadharNo == in.Form.AadharNo {
			return s.link(ctx, other, in.Proof)
		}
		return nil, models.ErrDuplicateRegistration
	}

	resp, err := s.link(ctx, reg, in.Proof)
	if err != nil {
		s.compensate(reg, in.Proof.OrderID)
		return nil, err
	}
	slog.Info("registration completed", "registration_id", reg.ID.Hex(), "order_id", in.Proof.OrderID, "document_pending", reg.DocumentPending)
	s.notify(*reg)
	return resp, nil
}

// matchOrder rejects form data that differs from what the payment order was created for
func matchOrder(order *models.PaymentOrder, form models.FormData) error {
	verr := &models.ValidationError{}
	if order.AadharNo != "" && order.AadharNo != form.AadharNo {
		verr.Add("aadharNo", "Form details do not match the payment order")
	}
	if form.SportID != order.SportID {
		verr.Add("sportId", "Sport does not match the payment order")
	}
	if !decimal.NewFromFloat(form.Amount).Equal(decimal.NewFromFloat(order.Amount)) {
		verr.Add("amount", "Amount does not match the payment order")
	}
	return verr.OrNil()
}

// link marks the order paid against reg, accepting that a concurrent attempt may
// already have done so with the same registration
func (s *VerificationService) link(ctx context.Context, reg *models.Registration, proof models.PaymentProof) (*models.VerifyResponse, error) {
	won, err := s.Payments.MarkPaid(ctx, proof.OrderID, proof.PaymentID, proof.Signature, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	if !won {
		current, err := s.Payments.FindByOrderID(ctx, proof.OrderID)
		if err != nil {
			return nil, fmt.Errorf("reload payment order: %w", err)
		}
		if !current.IsPaid() || current.RegistrationID == nil || *current.RegistrationID != reg.ID {
			return nil, models.ErrOrderNotPayable
		}
	}
	return &models.VerifyResponse{
		Success:         true,
		Message:         "Payment verified and registration completed",
		RegistrationID:  reg.ID.Hex(),
		DocumentPending: reg.DocumentPending,
	}, nil
}

func (s *VerificationService) replay(order *models.PaymentOrder, proof models.PaymentProof) (*models.VerifyResponse, error) {
	if order.PaymentID == nil || *order.PaymentID != proof.PaymentID || order.RegistrationID == nil {
		return nil, models.ErrDuplicateRegistration
	}
	return &models.VerifyResponse{
		Success:        true,
		Message:        "Payment already verified",
		RegistrationID: order.RegistrationID.Hex(),
	}, nil
}

// compensate removes a registration whose order could not be marked paid, unless
// the order ended up linked to it anyway
func (s *VerificationService) compensate(reg *models.Registration, orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if current, err := s.Payments.FindByOrderID(ctx, orderID); err == nil &&
		current.RegistrationID != nil && *current.RegistrationID == reg.ID {
		return
	}
	if err := s.Registrations.Delete(ctx, reg.ID); err != nil {
		slog.Error("remove unlinked registration", "registration_id", reg.ID.Hex(), "order_id", orderID, "err", err)
		return
	}
	// a concurrent attempt may have linked reg between the read and the delete
	current, err := s.Payments.FindByOrderID(ctx, orderID)
	if err != nil || current.RegistrationID == nil || *current.RegistrationID != reg.ID {
		return
	}
	if err := s.Registrations.Create(ctx, reg); err != nil {
		slog.Error("paid order points at a removed registration", "registration_id", reg.ID.Hex(), "order_id", orderID, "err", err)
		return
	}
	slog.Warn("restored registration linked during removal", "registration_id", reg.ID.Hex(), "order_id", orderID)
}

func (s *VerificationService) notify(reg models.Registration) {
	s.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Email.SendRegistrationConfirmation(reg); err != nil {
			slog.Error("send confirmation email", "email", reg.Email, "err", err)
		}
		err := s.Events.Publish(ctx, events.Event{
			Type:            events.TypeRegistrationCompleted,
			RegistrationID:  reg.ID.Hex(),
			OrderID:         reg.OrderID,
			PaymentID:       reg.PaymentID,
			Email:           reg.Email,
			SportID:         reg.SportID,
			SportName:       reg.SportName,
			Amount:          reg.Amount,
			DocumentPending: reg.DocumentPending,
			OccurredAt:      time.Now().UTC(),
		})
		if err != nil {
			slog.Error("publish registration event", "registration_id", reg.ID.Hex(), "err", err)
		}
	})
}

// AttachDocument stores an identity document for a paid registration that was
// completed without one
func (s *VerificationService) AttachDocument(ctx context.Context, orderID string, doc *Document) (*models.Registration, error) {
	if doc == nil || doc.Reader == nil {
		return nil, models.ErrNoDocument
	}
	order, err := s.Payments.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() || order.RegistrationID == nil {
		return nil, models.ErrOrderNotPayable
	}
	reg, err := s.Registrations.FindByID(ctx, *order.RegistrationID)
	if err != nil {
		return nil, fmt.Errorf("load registration: %w", err)
	}
	url, err := s.Media.Save(ctx, documentFolder, fmt.Sprintf("%s_%s", orderID, media.SafeName(doc.Name)), doc.Reader)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	if err := s.Registrations.AttachDocument(ctx, reg.ID, url); err != nil {
		return nil, err
	}
	reg.DocumentURL = url
	reg.DocumentPending = false
	return reg, nil
}
