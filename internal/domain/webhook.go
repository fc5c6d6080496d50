/**
 * @description
 * This file defines the Go structs that model the incoming webhook payloads from Cakto.
 * Cakto payloads are only loosely specified, so the event data is kept as a raw JSON
 * object and the extraction helpers in the app layer probe it for the fields they need.
 *
 * @notes
 * - The `data` object is optional: some Cakto integrations send the payment fields at
 *   the top level of the payload, in which case the whole envelope is the data object.
 * - PaymentFields is a partial record; any subset of its fields may be populated.
 */
package domain

// PaymentOutcome is the classification of a webhook event type.
type PaymentOutcome string

const (
	OutcomeApproved  PaymentOutcome = "approved"
	OutcomeRefused   PaymentOutcome = "refused"
	OutcomeRefunded  PaymentOutcome = "refunded"
	OutcomeUnhandled PaymentOutcome = "unhandled"
)

// PaymentFields holds the customer-identifying fields extracted from a webhook
// payload. TransactionID, Amount and ProductID keep whatever JSON type the
// processor sent (string or number); no normalization is applied.
type PaymentFields struct {
	Email          string
	Name           string
	RegistrationID string
	TransactionID  interface{}
	Amount         interface{}
	ProductID      interface{}
}

// HasCustomerIdentity reports whether the payload carried an extractable email.
// The classifier uses this to decide between Approved and Unhandled for
// unknown event types.
func (f PaymentFields) HasCustomerIdentity() bool {
	return f.Email != ""
}

// ReconcileResult is the tagged outcome of running the reconciliation
// strategies for a payment event.
type ReconcileResult struct {
	Success bool
	// UserUID is the identity-provider uid of the activated account, set when
	// a strategy succeeded.
	UserUID string
	// Method names the strategy that succeeded: "registration_id", "email" or
	// "basic_account".
	Method  string
	Message string
	Err     error
}
