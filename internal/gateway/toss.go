package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTossBaseURL is the production Toss Payments API host.
const DefaultTossBaseURL = "https://api.tosspayments.com"

// maxErrorBytes caps how much of an error body is kept.
const maxErrorBytes = 4096

// defaultClient serves a Toss built without NewToss.
var defaultClient = newTracedClient(0)

// Toss calls the Toss Payments REST API. Requests authenticate with HTTP
// Basic auth using the secret key as the user name and an empty password.
type Toss struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// NewToss builds a Toss client with its own http.Client bound to timeout.
// Outbound requests get an HTTP client span and W3C trace headers from
// otelhttp.
func NewToss(baseURL, secretKey string, timeout time.Duration) *Toss {
	if baseURL == "" {
		baseURL = DefaultTossBaseURL
	}
	return &Toss{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SecretKey:  secretKey,
		HTTPClient: newTracedClient(timeout),
	}
}

func newTracedClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Confirm captures the payment (POST /v1/payments/confirm). The order id is
// sent as the Idempotency-Key so processor-side retries cannot double charge.
func (t *Toss) Confirm(ctx context.Context, req ConfirmRequest) (*Result, error) {
	body := map[string]any{
		"paymentKey": req.PaymentKey,
		"orderId":    req.OrderID,
		"amount":     req.Amount,
	}
	return t.do(ctx, OpConfirm, "/v1/payments/confirm", req.OrderID, body)
}

// Cancel refunds the payment (POST /v1/payments/{paymentKey}/cancel).
func (t *Toss) Cancel(ctx context.Context, req CancelRequest) (*Result, error) {
	reason := req.Reason
	if strings.TrimSpace(reason) == "" {
		reason = "user_requested"
	}
	body := map[string]any{
		"cancelReason": reason,
		"cancelAmount": req.Amount,
	}
	path := "/v1/payments/" + url.PathEscape(req.PaymentKey) + "/cancel"
	return t.do(ctx, OpCancel, path, "cancel-"+req.PaymentKey, body)
}

// do wraps one gateway operation in a span carrying the payment attributes.
func (t *Toss) do(ctx context.Context, op, path, idemKey string, payload any) (*Result, error) {
	ctx, span := otel.Tracer("gateway/toss").Start(ctx, "toss."+op,
		trace.WithAttributes(
			attribute.String("payment.gateway", "toss"),
			attribute.String("payment.op", op),
		),
	)
	defer span.End()

	res, err := t.roundTrip(ctx, op, path, idemKey, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var gwErr *Error
		if errors.As(err, &gwErr) && gwErr.Code != "" {
			span.SetAttributes(attribute.String("payment.gateway_code", gwErr.Code))
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.status", res.Status))
	return res, nil
}

func (t *Toss) roundTrip(ctx context.Context, op, path, idemKey string, payload any) (*Result, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	httpReq.SetBasicAuth(t.SecretKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if idemKey != "" {
		httpReq.Header.Set("Idempotency-Key", idemKey)
	}

	client := t.HTTPClient
	if client == nil {
		client = defaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, parseErrorBody(op, resp)
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// parseErrorBody reads a bounded error body and extracts Toss's
// {"code","message"} envelope when present.
func parseErrorBody(op string, resp *http.Response) *Error {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	gwErr := &Error{Op: op, StatusCode: resp.StatusCode, Body: raw, Err: readErr}

	var env struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &env) == nil {
		gwErr.Code = env.Code
		gwErr.Message = env.Message
	}
	if gwErr.Message == "" {
		gwErr.Message = http.StatusText(resp.StatusCode)
	}
	return gwErr
}
