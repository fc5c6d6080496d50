/**
 * @description
 * This file contains the HTTP handlers for the Cakto webhook surface. The
 * primary receiver validates the delivery signature, parses the loosely
 * specified payload, classifies the event and hands the extracted fields to
 * the reconciliation service. The remaining routes are operational helpers:
 * a liveness probe, an integration-info endpoint, and two development-only
 * test harnesses.
 *
 * @notes
 * - Business failures (reconciliation could not complete) are returned as
 *   200 with an {error, details} body. Cakto's retry policy keys off the
 *   status code; 4xx/5xx are reserved for transport, auth and server faults.
 * - Signature validation is bypassed while the configured secret is empty or
 *   still the default development sentinel; every bypassed delivery logs a
 *   warning.
 */
package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/nutraflex/webhook-service/internal/app"
	"github.com/nutraflex/webhook-service/internal/domain"
)

// PaymentProcessor is the slice of the application service the webhook
// handlers need.
type PaymentProcessor interface {
	ProcessApproved(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult
	ProcessRefused(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult
	ProcessRefunded(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult
}

// WebhookHandler processes incoming webhooks from Cakto.
type WebhookHandler struct {
	processor       PaymentProcessor
	secret          string
	bypassSignature bool
	callbackURL     string
	devMode         bool
}

// NewWebhookHandler creates the handler for the webhook endpoints.
// bypassSignature must be true only when the secret is unset or still the
// development default.
func NewWebhookHandler(processor PaymentProcessor, secret string, bypassSignature bool, callbackURL string, devMode bool) *WebhookHandler {
	return &WebhookHandler{
		processor:       processor,
		secret:          secret,
		bypassSignature: bypassSignature,
		callbackURL:     callbackURL,
		devMode:         devMode,
	}
}

// HandleCakto is the primary webhook receiver (POST /api/webhook/cakto).
func (h *WebhookHandler) HandleCakto(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log.Printf("[%s] Webhook received from %s content_type=%q", requestID, r.RemoteAddr, r.Header.Get("Content-Type"))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("[%s] Error reading webhook body: %v", requestID, err)
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "cannot read request body"})
		return
	}
	log.Printf("[%s] Payload size: %d bytes", requestID, len(body))

	if h.bypassSignature {
		log.Printf("[%s] Warning: webhook secret is unset or default, skipping signature validation", requestID)
	} else if !validateSignature(body, r.Header.Get("X-Cakto-Signature"), h.secret) {
		log.Printf("[%s] Invalid webhook signature", requestID)
		respondWithJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "invalid signature"})
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[%s] Error decoding webhook JSON: %v", requestID, err)
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}

	response, status := h.processPayload(r.Context(), requestID, payload)
	respondWithJSON(w, status, response)
}

// processPayload runs classification, extraction and reconciliation for a
// decoded webhook payload and maps the result to a response body.
func (h *WebhookHandler) processPayload(ctx context.Context, requestID string, payload map[string]interface{}) (map[string]interface{}, int) {
	eventType := eventTypeFromPayload(payload)
	data := dataFromPayload(payload)
	fields := app.ExtractPaymentFields(data)
	outcome := app.ClassifyEvent(eventType, fields.HasCustomerIdentity())

	log.Printf("[%s] Processing event %q as %s (email=%q)", requestID, eventType, outcome, fields.Email)

	var result domain.ReconcileResult
	switch outcome {
	case domain.OutcomeApproved:
		result = h.processor.ProcessApproved(ctx, fields)
	case domain.OutcomeRefused:
		result = h.processor.ProcessRefused(ctx, fields)
	case domain.OutcomeRefunded:
		result = h.processor.ProcessRefunded(ctx, fields)
	default:
		log.Printf("[%s] Unhandled webhook event type: %s", requestID, eventType)
		return map[string]interface{}{"message": "unhandled event", "event": eventType}, http.StatusOK
	}

	return buildReconcileResponse(outcome, fields, result), http.StatusOK
}

// HandleTest is the liveness probe (GET /api/webhook/test).
func (h *WebhookHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "webhook endpoint is operational",
		"service": "nutraflex-webhook",
	})
}

// HandleInfo reports the configured callback URL and the event types the
// receiver models explicitly (GET /api/webhook/info).
func (h *WebhookHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"webhook_url":      h.callbackURL,
		"signature_header": "X-Cakto-Signature",
		"supported_events": app.SupportedEventTypes(),
	})
}

// HandleSimulatePayment fabricates an approved payment for a given email and
// runs it through the full pipeline (POST /api/webhook/simulate-payment,
// development only).
func (h *WebhookHandler) HandleSimulatePayment(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		respondWithJSON(w, http.StatusForbidden, map[string]interface{}{"error": "endpoint available only in development"})
		return
	}

	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}
	if req.Email == "" {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "email is required"})
		return
	}

	requestID := uuid.NewString()
	payload := map[string]interface{}{
		"event": "payment.approved",
		"data": map[string]interface{}{
			"customer": map[string]interface{}{
				"email": req.Email,
				"name":  req.Name,
			},
			"transaction_id": "sim_" + uuid.NewString(),
			"amount":         197.0,
			"product_id":     "simulated_product",
		},
	}
	log.Printf("[%s] Simulating approved payment for %s", requestID, req.Email)

	response, status := h.processPayload(r.Context(), requestID, payload)
	response["simulated"] = true
	respondWithJSON(w, status, response)
}

// HandleTestExtraction runs only the field extractor against an arbitrary
// JSON body and reports which fields were found (POST
// /api/webhook/test-extraction, development only).
func (h *WebhookHandler) HandleTestExtraction(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		respondWithJSON(w, http.StatusForbidden, map[string]interface{}{"error": "endpoint available only in development"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "cannot read request body"})
		return
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}

	fields := app.ExtractPaymentFields(dataFromPayload(payload))

	found := map[string]interface{}{}
	missing := []string{}
	collect := func(name string, value interface{}, present bool) {
		if present {
			found[name] = value
		} else {
			missing = append(missing, name)
		}
	}
	collect("email", fields.Email, fields.Email != "")
	collect("name", fields.Name, fields.Name != "")
	collect("registration_id", fields.RegistrationID, fields.RegistrationID != "")
	collect("transaction_id", fields.TransactionID, fields.TransactionID != nil)
	collect("amount", fields.Amount, fields.Amount != nil)
	collect("product_id", fields.ProductID, fields.ProductID != nil)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"found":   found,
		"missing": missing,
	})
}

// eventTypeFromPayload reads the event-type string from the envelope. Cakto
// has used both "event" and "type"; payloads with neither are assumed to be
// approved payments.
func eventTypeFromPayload(payload map[string]interface{}) string {
	if v, ok := payload["event"].(string); ok && v != "" {
		return v
	}
	if v, ok := payload["type"].(string); ok && v != "" {
		return v
	}
	return app.DefaultEventType
}

// dataFromPayload returns the nested data object, or the envelope itself for
// integrations that send payment fields at the top level.
func dataFromPayload(payload map[string]interface{}) map[string]interface{} {
	if data, ok := payload["data"].(map[string]interface{}); ok {
		return data
	}
	return payload
}

// buildReconcileResponse maps a reconciliation result to the webhook response
// body. Failures stay 200-status with an {error, details} body; Cakto treats
// non-2xx as a delivery failure and would retry mutations that already
// happened.
func buildReconcileResponse(outcome domain.PaymentOutcome, fields domain.PaymentFields, result domain.ReconcileResult) map[string]interface{} {
	if !result.Success {
		details := ""
		if result.Err != nil {
			details = result.Err.Error()
		}
		return map[string]interface{}{
			"error":   "failed to process payment event",
			"details": details,
		}
	}

	response := map[string]interface{}{
		"success":        true,
		"message":        result.Message,
		"customer_email": fields.Email,
	}
	if outcome == domain.OutcomeApproved {
		response["registration_id"] = fields.RegistrationID
		response["transaction_id"] = fields.TransactionID
		response["status"] = domain.AccessStatusActive
		response["identification_method"] = result.Method
	}
	return response
}
