// registration/gateway/razorpay.go
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hackbits/registration-service/shared/api"
)

// ErrUnavailable marks a transport-level gateway failure: the caller may
// retry safely because no local state was touched.
var ErrUnavailable = errors.New("payment gateway unavailable")

// PaymentCaptured is the remote status a payment must report before its
// proof is accepted.
const PaymentCaptured = "captured"

// Order is a created checkout order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Payment is the remote view of a payment, fetched to confirm capture.
type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// Client is the payment gateway collaborator used by the payment service.
type Client interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// RazorpayClient talks to a Razorpay-compatible REST API over HTTP basic
// auth. All calls are bounded by the client timeout.
type RazorpayClient struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
}

// NewRazorpayClient creates a gateway client for the given credentials.
func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	httpClient := api.NewDefaultHTTPClient()
	httpClient.Timeout = timeout
	return &RazorpayClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
	}
}

// CreateOrder creates a checkout order for the given amount in minor
// currency units.
func (rc *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error) {
	body := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(rc.keyID, rc.keySecret)

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order creation failed: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from gateway order creation", resp.StatusCode)
	}

	var order Order
	if err := decodeBody(resp.Body, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &order, nil
}

// FetchPayment retrieves the remote payment so its capture status can be
// confirmed before proof is accepted.
func (rc *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	url := fmt.Sprintf("%s/payments/%s", rc.baseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment fetch request: %w", err)
	}
	req.SetBasicAuth(rc.keyID, rc.keySecret)

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment fetch failed for %s: %w: %v", paymentID, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("payment %s not found at gateway", paymentID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching payment %s", resp.StatusCode, paymentID)
	}

	var payment Payment
	if err := decodeBody(resp.Body, &payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment response for %s: %w", paymentID, err)
	}
	return &payment, nil
}

// VerifySignature recomputes the checkout signature locally: an HMAC-SHA256
// over "orderID|paymentID" keyed with the gateway secret, hex encoded.
// Comparison is constant time.
func (rc *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(rc.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func decodeBody(body io.Reader, v interface{}) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
