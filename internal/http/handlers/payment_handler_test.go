package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/gateway"
	"github.com/tbourn/go-rental-backend/internal/http/middleware"
)

func TestPreparePayment_AmountAndAuthorization(t *testing.T) {
	a := newTestAPI(t)
	tx, p := a.prepared(3)
	if p.Status != domain.PaymentReady || p.Amount != 3*1000+500 || p.TransactionID != tx.ID || p.OrderID == "" {
		t.Fatalf("unexpected payment: %#v", p)
	}

	w := a.do(http.MethodPost, "/payments/prepare", a.owner, fmt.Sprintf(`{"transaction_id":%q,"rental_days":3}`, tx.ID))
	if w.Code != http.StatusForbidden {
		t.Fatalf("owner prepare -> %d", w.Code)
	}
	w = a.do(http.MethodPost, "/payments/prepare", a.renter, fmt.Sprintf(`{"transaction_id":%q,"rental_days":0}`, tx.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("zero days -> %d", w.Code)
	}
	w = a.do(http.MethodPost, "/payments/prepare", a.renter, `{"transaction_id":"missing","rental_days":1}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing transaction -> %d", w.Code)
	}

	// Same amount reuses the READY payment.
	var again domain.Payment
	a.mustDo(http.MethodPost, "/payments/prepare", a.renter, fmt.Sprintf(`{"transaction_id":%q,"rental_days":3}`, tx.ID), http.StatusCreated, &again)
	if again.OrderID != p.OrderID {
		t.Fatalf("prepare not reused: %s != %s", again.OrderID, p.OrderID)
	}
}

func TestPreparePayment_IdempotentReplay(t *testing.T) {
	a := newTestAPI(t)
	tx := a.accepted()
	body := fmt.Sprintf(`{"transaction_id":%q,"rental_days":2}`, tx.ID)

	var first, second domain.Payment
	a.mustDo(http.MethodPost, "/payments/prepare", a.renter, body, http.StatusCreated, &first, middleware.HeaderIdempotencyKey, "prep-1")
	w := a.mustDo(http.MethodPost, "/payments/prepare", a.renter, body, http.StatusCreated, &second, middleware.HeaderIdempotencyKey, "prep-1")
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" || first.OrderID != second.OrderID {
		t.Fatalf("replay mismatch: %s vs %s", first.OrderID, second.OrderID)
	}
}

func TestConfirmPayment_SettlesAndReplays(t *testing.T) {
	a := newTestAPI(t)
	tx, p := a.prepared(3)

	w := a.do(http.MethodPost, "/payments/confirm", a.stranger, confirmBody(p))
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger confirm -> %d", w.Code)
	}
	w = a.do(http.MethodPost, "/payments/confirm", a.renter, fmt.Sprintf(`{"order_id":%q,"payment_key":"pk","amount":1}`, p.OrderID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("amount mismatch -> %d", w.Code)
	}
	w = a.do(http.MethodPost, "/payments/confirm", a.renter, `{"order_id":"missing","payment_key":"pk","amount":1}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing order -> %d", w.Code)
	}
	w = a.do(http.MethodPost, "/payments/confirm", a.renter, `{"order_id":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing payment_key -> %d", w.Code)
	}
	if calls := a.gw.ConfirmCalls(); calls != 0 {
		t.Fatalf("gateway called %d times by rejected requests", calls)
	}

	var confirmed domain.Payment
	a.mustDo(http.MethodPost, "/payments/confirm", a.renter, confirmBody(p), http.StatusOK, &confirmed)
	if confirmed.Status != domain.PaymentConfirmed || confirmed.PaymentKey != "pk_"+p.OrderID || confirmed.ConfirmedAt == nil {
		t.Fatalf("unexpected confirmed payment: %#v", confirmed)
	}
	var got domain.Transaction
	a.mustDo(http.MethodGet, "/transactions/"+tx.ID, a.renter, "", http.StatusOK, &got)
	if got.Status != domain.StatusPaid {
		t.Fatalf("transaction status=%s", got.Status)
	}

	var replay domain.Payment
	a.mustDo(http.MethodPost, "/payments/confirm", a.owner, confirmBody(p), http.StatusOK, &replay)
	if replay.Status != domain.PaymentConfirmed || a.gw.ConfirmCalls() != 1 {
		t.Fatalf("replay: status=%s calls=%d", replay.Status, a.gw.ConfirmCalls())
	}

	var fetched domain.Payment
	a.mustDo(http.MethodGet, "/payments/"+p.OrderID, a.owner, "", http.StatusOK, &fetched)
	if fetched.Status != domain.PaymentConfirmed {
		t.Fatalf("fetched status=%s", fetched.Status)
	}
	w = a.do(http.MethodGet, "/payments/"+p.OrderID, a.stranger, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger get -> %d", w.Code)
	}
}

func TestConfirmPayment_GatewayFailure(t *testing.T) {
	a := newTestAPI(t)
	tx, p := a.prepared(1)
	a.gw.ConfirmErr = &gateway.Error{Op: gateway.OpConfirm, StatusCode: 400, Code: "REJECT_CARD_COMPANY", Message: "card declined"}

	w := a.do(http.MethodPost, "/payments/confirm", a.renter, confirmBody(p))
	if w.Code != http.StatusBadGateway || errorCode(t, w) != ErrCodeGateway {
		t.Fatalf("gateway failure -> %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"gateway_code":"REJECT_CARD_COMPANY"`) {
		t.Fatalf("gateway code not surfaced: %s", w.Body.String())
	}

	var got domain.Payment
	a.mustDo(http.MethodGet, "/payments/"+p.OrderID, a.renter, "", http.StatusOK, &got)
	if got.Status != domain.PaymentReady {
		t.Fatalf("payment status=%s", got.Status)
	}
	var gotTx domain.Transaction
	a.mustDo(http.MethodGet, "/transactions/"+tx.ID, a.renter, "", http.StatusOK, &gotTx)
	if gotTx.Status != domain.StatusAccepted {
		t.Fatalf("transaction status=%s", gotTx.Status)
	}
}

func TestCancelPayment_RefundsAndCancels(t *testing.T) {
	a := newTestAPI(t)
	tx, p := a.paid(2)

	w := a.do(http.MethodPost, "/payments/cancel", a.renter, fmt.Sprintf(`{"order_id":%q,"amount":%d}`, p.OrderID, p.Amount+1))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("amount mismatch -> %d", w.Code)
	}

	var canceled domain.Payment
	a.mustDo(http.MethodPost, "/payments/cancel", a.renter, fmt.Sprintf(`{"order_id":%q,"amount":%d}`, p.OrderID, p.Amount), http.StatusOK, &canceled)
	if canceled.Status != domain.PaymentCanceled || canceled.CancelReason != "user_requested" || canceled.CanceledAt == nil {
		t.Fatalf("unexpected canceled payment: %#v", canceled)
	}
	var got domain.Transaction
	a.mustDo(http.MethodGet, "/transactions/"+tx.ID, a.owner, "", http.StatusOK, &got)
	if got.Status != domain.StatusCanceled {
		t.Fatalf("transaction status=%s", got.Status)
	}

	a.mustDo(http.MethodPost, "/payments/cancel", a.owner, fmt.Sprintf(`{"order_id":%q,"cancel_reason":"again","amount":%d}`, p.OrderID, p.Amount), http.StatusOK, &canceled)
	if canceled.CancelReason != "user_requested" || a.gw.CancelCalls() != 1 {
		t.Fatalf("replay: reason=%q calls=%d", canceled.CancelReason, a.gw.CancelCalls())
	}
}

func TestCancelPayment_AfterRentalStartedIsInvalid(t *testing.T) {
	a := newTestAPI(t)
	tx, p := a.paid(1)
	a.mustDo(http.MethodPost, "/transactions/"+tx.ID+"/start", a.renter, `{"start_at":"2026-05-01T09:00:00Z","end_at":"2026-05-02T09:00:00Z"}`, http.StatusOK, nil)

	w := a.do(http.MethodPost, "/payments/cancel", a.renter, fmt.Sprintf(`{"order_id":%q,"cancel_reason":"changed plans","amount":%d}`, p.OrderID, p.Amount))
	if w.Code != http.StatusConflict || errorCode(t, w) != ErrCodeInvalidState {
		t.Fatalf("cancel rented -> %d %s", w.Code, w.Body.String())
	}
	if a.gw.CancelCalls() != 0 {
		t.Fatalf("gateway called %d times", a.gw.CancelCalls())
	}
}
