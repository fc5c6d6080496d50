/**
 * @description
 * This file classifies the free-form event-type strings Cakto sends into the
 * payment outcomes the reconciliation engine understands. Cakto has shipped
 * several spellings for the same event over time (dotted, underscored and
 * bare forms, plus the "purchase_approved" token used by one of its checkout
 * integrations), so classification is an exact string-set membership test.
 */
package app

import "github.com/nutraflex/webhook-service/internal/domain"

// DefaultEventType is assumed when a payload carries no event or type field.
const DefaultEventType = "payment.approved"

var (
	approvedEventTypes = map[string]struct{}{
		"payment.approved":  {},
		"payment_approved":  {},
		"approved":          {},
		"completed":         {},
		"purchase_approved": {},
	}
	refusedEventTypes = map[string]struct{}{
		"payment.refused": {},
		"payment_refused": {},
		"refused":         {},
		"failed":          {},
	}
	refundedEventTypes = map[string]struct{}{
		"payment.refunded": {},
		"payment_refunded": {},
		"refunded":         {},
	}
)

// ClassifyEvent maps an event-type string to a payment outcome. Matching is
// case-sensitive. Unknown event types are treated as approved when the
// payload carried customer identity (an extractable email); otherwise they
// are unhandled and only acknowledged.
func ClassifyEvent(eventType string, hasCustomerIdentity bool) domain.PaymentOutcome {
	if _, ok := approvedEventTypes[eventType]; ok {
		return domain.OutcomeApproved
	}
	if _, ok := refusedEventTypes[eventType]; ok {
		return domain.OutcomeRefused
	}
	if _, ok := refundedEventTypes[eventType]; ok {
		return domain.OutcomeRefunded
	}
	if hasCustomerIdentity {
		return domain.OutcomeApproved
	}
	return domain.OutcomeUnhandled
}

// SupportedEventTypes lists every event-type spelling the service handles
// explicitly, for the /info endpoint.
func SupportedEventTypes() []string {
	return []string{
		"payment.approved", "payment_approved", "approved", "completed", "purchase_approved",
		"payment.refused", "payment_refused", "refused", "failed",
		"payment.refunded", "payment_refunded", "refunded",
	}
}
