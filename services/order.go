// Package services holds the payment order and verification rules, independent of HTTP.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"event-registration/gateway"
	"event-registration/models"
	"event-registration/store"
	"event-registration/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService creates payment orders for new registrations
type OrderService struct {
	Payments      store.PaymentStore
	Registrations store.RegistrationStore
	Gateway       gateway.Gateway
	Currency      string
	NewReceipt    func() string

	// Sports, when set, is the catalog the requested sport and fee are checked against
	Sports store.SportStore
}

// NewOrderService creates a new OrderService
func NewOrderService(payments store.PaymentStore, regs store.RegistrationStore, gw gateway.Gateway, currency string) *OrderService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &OrderService{
		Payments:      payments,
		Registrations: regs,
		Gateway:       gw,
		Currency:      currency,
		NewReceipt:    func() string { return uuid.NewString() },
	}
}

// CreateOrder validates the request, rejects Aadhar numbers that are already
// registered, records a created order and asks the gateway for a matching order.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkFee(ctx, &req); err != nil {
		return nil, err
	}
	if err := s.ensureNotRegistered(ctx, req.AadharNo); err != nil {
		return nil, err
	}
	amountMinor, err := utils.ToMinorUnits(req.Amount)
	if err != nil {
		return nil, &models.ValidationError{Fields: map[string]string{"amount": "Amount must be greater than zero"}}
	}

	order := &models.PaymentOrder{
		Receipt:   s.NewReceipt(),
		Amount:    req.Amount,
		Currency:  s.Currency,
		Status:    models.PaymentStatusCreated,
		Name:      req.Name,
		Email:     req.Email,
		MobileNo:  req.MobileNo,
		AadharNo:  req.AadharNo,
		SportID:   req.SportID,
		SportName: req.SportName,
	}
	if err := s.Payments.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("save payment order: %w", err)
	}

	gwOrder, err := s.Gateway.CreateOrder(ctx, order.Receipt, amountMinor, s.Currency, map[string]string{
		"sportId":   req.SportID,
		"sportName": req.SportName,
		"email":     req.Email,
	})
	if err != nil {
		if mErr := s.Payments.MarkFailed(context.WithoutCancel(ctx), order.Receipt); mErr != nil {
			slog.Error("mark order failed", "receipt", order.Receipt, "err", mErr)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrGateway, err)
	}
	if err := s.Payments.AttachGatewayOrder(ctx, order.Receipt, gwOrder.ID); err != nil {
		return nil, fmt.Errorf("save gateway order id: %w", err)
	}
	if gwOrder.Currency == "" {
		gwOrder.Currency = s.Currency
	}
	if gwOrder.Amount == 0 {
		gwOrder.Amount = amountMinor
	}

	slog.Info("payment order created", "order_id", gwOrder.ID, "receipt", order.Receipt, "sport_id", req.SportID)
	return &models.CreateOrderResponse{Success: true, Order: gwOrder, Key: s.Gateway.KeyID()}, nil
}

// Status reports where an order is in its lifecycle
func (s *OrderService) Status(ctx context.Context, orderID string) (*models.PaymentStatusResponse, error) {
	order, err := s.Payments.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := &models.PaymentStatusResponse{
		Success:   true,
		OrderID:   order.OrderID,
		Status:    order.Status,
		Amount:    order.Amount,
		Currency:  order.Currency,
		SportName: order.SportName,
	}
	if order.RegistrationID != nil {
		resp.RegistrationID = order.RegistrationID.Hex()
	}
	return resp, nil
}

func (s *OrderService) ensureNotRegistered(ctx context.Context, aadharNo string) error {
	_, err := s.Registrations.FindByAadhar(ctx, aadharNo)
	switch {
	case err == nil:
		return models.ErrDuplicateRegistration
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check existing registration: %w", err)
	}
}

// checkFee makes sure the payer is charged the catalog fee for the sport
func (s *OrderService) checkFee(ctx context.Context, req *models.CreateOrderRequest) error {
	if s.Sports == nil {
		return nil
	}
	sport, err := s.Sports.Find(ctx, req.SportID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.ValidationError{Fields: map[string]string{"sportId": "This sport is not open for registration"}}
	}
	if err != nil {
		return fmt.Errorf("load sport: %w", err)
	}
	if !decimal.NewFromFloat(req.Amount).Equal(decimal.NewFromFloat(sport.Fee)) {
		return &models.ValidationError{Fields: map[string]string{"amount": "Amount does not match the sport fee"}}
	}
	req.SportName = sport.Name
	return nil
}
