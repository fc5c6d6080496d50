package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nutraflex/webhook-service/internal/config"
	"github.com/nutraflex/webhook-service/internal/domain"
)

// fakeProcessor records which pipeline method ran and with what fields.
type fakeProcessor struct {
	approved []domain.PaymentFields
	refused  []domain.PaymentFields
	refunded []domain.PaymentFields
	result   domain.ReconcileResult
}

func (f *fakeProcessor) ProcessApproved(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult {
	f.approved = append(f.approved, fields)
	return f.result
}

func (f *fakeProcessor) ProcessRefused(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult {
	f.refused = append(f.refused, fields)
	return f.result
}

func (f *fakeProcessor) ProcessRefunded(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult {
	f.refunded = append(f.refunded, fields)
	return f.result
}

func successResult() domain.ReconcileResult {
	return domain.ReconcileResult{Success: true, UserUID: "uid_1", Method: "email", Message: "account activated"}
}

func postWebhook(t *testing.T, handler *WebhookHandler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/cakto", bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.HandleCakto(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

func TestHandleCaktoBypassesSignatureWithDefaultSecret(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	rec := postWebhook(t, handler, `{"event":"payment.approved","data":{"email":"a@x.com"}}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with bypass active, got %d", rec.Code)
	}
	if len(proc.approved) != 1 {
		t.Fatalf("expected one approved call, got %d", len(proc.approved))
	}
}

func TestHandleCaktoRejectsInvalidSignature(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, "real-secret", false, "", false)

	rec := postWebhook(t, handler, `{"event":"payment.approved"}`, map[string]string{
		"X-Cakto-Signature": "sha256=0000",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad signature, got %d", rec.Code)
	}
	if len(proc.approved)+len(proc.refused)+len(proc.refunded) != 0 {
		t.Fatal("no processing expected for a rejected delivery")
	}
}

func TestHandleCaktoAcceptsValidSignature(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, "real-secret", false, "", false)

	body := `{"event":"payment.approved","data":{"email":"a@x.com"}}`
	rec := postWebhook(t, handler, body, map[string]string{
		"X-Cakto-Signature": signBody([]byte(body), "real-secret"),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a valid signature, got %d", rec.Code)
	}
	if len(proc.approved) != 1 {
		t.Fatalf("expected one approved call, got %d", len(proc.approved))
	}
}

func TestHandleCaktoRejectsMalformedJSON(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	rec := postWebhook(t, handler, `{not json`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestHandleCaktoUnhandledEventIsAcknowledged(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	rec := postWebhook(t, handler, `{"event":"subscription.cancelled","data":{"reason":"n/a"}}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("unhandled events must be acknowledged with 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["event"] != "subscription.cancelled" {
		t.Fatalf("expected the raw event type echoed back, got %v", body["event"])
	}
	if len(proc.approved)+len(proc.refused)+len(proc.refunded) != 0 {
		t.Fatal("unhandled events must not reach the reconciliation service")
	}
}

func TestHandleCaktoUnknownEventWithEmailIsApproved(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	rec := postWebhook(t, handler, `{"event":"subscription.cancelled","data":{"email":"a@x.com"}}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(proc.approved) != 1 {
		t.Fatal("unknown events carrying a customer email are treated as approved payments")
	}
}

func TestHandleCaktoEnvelopeWithoutDataObject(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	// No event and no data wrapper: the whole payload is the data object and
	// the event defaults to payment.approved.
	rec := postWebhook(t, handler, `{"email":"a@x.com","amount":197}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(proc.approved) != 1 {
		t.Fatalf("expected one approved call, got %d", len(proc.approved))
	}
	if proc.approved[0].Email != "a@x.com" {
		t.Fatalf("expected top-level email extracted, got %q", proc.approved[0].Email)
	}
}

func TestHandleCaktoRefundRouting(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	rec := postWebhook(t, handler, `{"event":"payment.refunded","data":{"email":"a@x.com"}}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(proc.refunded) != 1 {
		t.Fatalf("expected one refunded call, got %d", len(proc.refunded))
	}
}

func TestHandleCaktoBusinessFailureStays200(t *testing.T) {
	proc := &fakeProcessor{result: domain.ReconcileResult{Err: context.DeadlineExceeded}}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	rec := postWebhook(t, handler, `{"event":"payment.approved","data":{"email":"a@x.com"}}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("business failures must stay 200 for the sender's retry policy, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] == nil || body["details"] == nil {
		t.Fatalf("expected an {error, details} body, got %v", body)
	}
}

func TestHandleCaktoApprovedResponseShape(t *testing.T) {
	proc := &fakeProcessor{result: domain.ReconcileResult{Success: true, UserUID: "uid_1", Method: "registration_id", Message: "account activated"}}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	rec := postWebhook(t, handler, `{"event":"approved","data":{"email":"a@x.com","registration_id":"R1","transaction_id":"tx_9"}}`, nil)

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("expected success true, got %v", body)
	}
	if body["customer_email"] != "a@x.com" || body["registration_id"] != "R1" || body["transaction_id"] != "tx_9" {
		t.Fatalf("expected extracted fields echoed back, got %v", body)
	}
	if body["status"] != "active" || body["identification_method"] != "registration_id" {
		t.Fatalf("expected activation metadata in response, got %v", body)
	}
}

func TestHandleSimulatePaymentForbiddenOutsideDevelopment(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", false)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/simulate-payment", bytes.NewBufferString(`{"email":"t@test.com"}`))
	rec := httptest.NewRecorder()
	handler.HandleSimulatePayment(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 outside development, got %d", rec.Code)
	}
	if len(proc.approved) != 0 {
		t.Fatal("no processing expected outside development")
	}
}

func TestHandleSimulatePaymentRunsFullPipeline(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/simulate-payment", bytes.NewBufferString(`{"email":"t@test.com","name":"Tester"}`))
	rec := httptest.NewRecorder()
	handler.HandleSimulatePayment(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(proc.approved) != 1 {
		t.Fatalf("expected one approved call, got %d", len(proc.approved))
	}
	// The fabricated payload carries the email under customer.email, so the
	// extractor must surface it exactly like a real approved webhook.
	if proc.approved[0].Email != "t@test.com" {
		t.Fatalf("expected simulated email extracted, got %q", proc.approved[0].Email)
	}
	if proc.approved[0].TransactionID == nil || proc.approved[0].Amount == nil {
		t.Fatal("expected fabricated transaction id and amount")
	}
	body := decodeBody(t, rec)
	if body["simulated"] != true {
		t.Fatalf("expected simulated marker, got %v", body)
	}
}

func TestHandleTestExtractionReportsFoundAndMissing(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "", true)

	payload := `{"data":{"customer":{"email":"a@x.com"},"amount":49.9}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/test-extraction", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	handler.HandleTestExtraction(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	found, ok := body["found"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected found map, got %v", body)
	}
	if found["email"] != "a@x.com" || found["amount"] != 49.9 {
		t.Fatalf("expected email and amount found, got %v", found)
	}
	missing, ok := body["missing"].([]interface{})
	if !ok || len(missing) == 0 {
		t.Fatalf("expected missing fields reported, got %v", body["missing"])
	}
	if len(proc.approved)+len(proc.refused)+len(proc.refunded) != 0 {
		t.Fatal("test-extraction must not trigger reconciliation")
	}
}

func TestHandleInfoListsSupportedEvents(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	handler := NewWebhookHandler(proc, config.DefaultWebhookSecret, true, "https://example.com/api/webhook/cakto", true)

	req := httptest.NewRequest(http.MethodGet, "/api/webhook/info", nil)
	rec := httptest.NewRecorder()
	handler.HandleInfo(rec, req)

	body := decodeBody(t, rec)
	if body["webhook_url"] != "https://example.com/api/webhook/cakto" {
		t.Fatalf("expected configured callback URL, got %v", body["webhook_url"])
	}
	events, ok := body["supported_events"].([]interface{})
	if !ok || len(events) == 0 {
		t.Fatalf("expected supported event list, got %v", body["supported_events"])
	}
}
