// Package client talks to the registration backend on behalf of the payer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"event-registration/models"
)

const (
	// DefaultBaseURL is used when no base URL is configured
	DefaultBaseURL = "http://localhost:5000/api"
	// DefaultTimeout bounds every request made by the client
	DefaultTimeout = 45 * time.Second
)

// Error is a failed API call. Status is 0 when the server could not be reached.
type Error struct {
	Status    int
	Message   string
	Temporary bool
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Document is an identity document attached to a verification request
type Document struct {
	Name   string
	Reader io.Reader
}

// Client is an explicitly constructed API client carrying its base address and timeout
type Client struct {
	baseURL string
	http    *http.Client
}

// NormalizeBaseURL trims trailing slashes and makes sure the URL ends in /api
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/api") {
		raw += "/api"
	}
	return raw
}

// New creates a Client. A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: NormalizeBaseURL(baseURL),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the normalised API base
func (c *Client) BaseURL() string { return c.baseURL }

// ServerRoot is the base URL without the /api suffix. Liveness is served there.
func (c *Client) ServerRoot() string {
	return strings.TrimSuffix(c.baseURL, "/api")
}

// CreateOrder asks the backend for a gateway order
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/create-order", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp models.CreateOrderResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify submits the payment proof, the form and an optional document
func (c *Client) Verify(ctx context.Context, proof models.PaymentProof, form models.FormData, doc *Document) (*models.VerifyResponse, error) {
	formJSON, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"razorpay_order_id", proof.OrderID},
		{"razorpay_payment_id", proof.PaymentID},
		{"razorpay_signature", proof.Signature},
		{"formData", string(formJSON)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	if doc != nil && doc.Reader != nil {
		fw, err := mw.CreateFormFile("aadharPhoto", doc.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(fw, doc.Reader); err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/verify", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var resp models.VerifyResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PaymentStatus looks up an order by its gateway id
func (c *Client) PaymentStatus(ctx context.Context, orderID string) (*models.PaymentStatusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payment/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, err
	}
	var resp models.PaymentStatusResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sports lists the sports open for registration
func (c *Client) Sports(ctx context.Context) ([]models.Sport, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sports", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []models.Sport `json:"data"`
	}
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Sport fetches one catalog entry
func (c *Client) Sport(ctx context.Context, id string) (*models.Sport, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sports/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var sport models.Sport
	if err := c.do(httpReq, &sport); err != nil {
		return nil, err
	}
	return &sport, nil
}

// Health performs a single liveness request against the server root
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ServerRoot()+"/health", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Cache-Control", "no-store")
	return c.do(httpReq, nil)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		msg := "network error: request failed"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			msg = "request timeout"
		}
		return &Error{Message: msg, Temporary: true}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: "network error: reading response", Temporary: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Status:    resp.StatusCode,
			Message:   errorMessage(resp.StatusCode, data),
			Temporary: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
