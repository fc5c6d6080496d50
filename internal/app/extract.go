/**
 * @description
 * Best-effort field extraction from Cakto webhook payloads. Cakto (and the
 * checkout integrations layered on top of it) spreads the same logical fields
 * across many possible locations: top-level keys, a nested "customer" object,
 * numbered custom fields, and "metadata"/"user_data" values that arrive as
 * JSON-encoded strings. Each logical field probes its candidate paths in
 * order and keeps the first non-null, non-empty value.
 *
 * @notes
 * - Extraction is independent per field: a missing email does not prevent
 *   extracting an amount.
 * - No trimming, case-folding or validation is applied to extracted values.
 * - Malformed JSON inside metadata/user_data strings is treated as absent,
 *   never as an error.
 */
package app

import (
	"encoding/json"

	"github.com/nutraflex/webhook-service/internal/domain"
)

// ExtractPaymentFields probes a decoded webhook data object for the
// customer-identifying fields the reconciliation engine needs.
func ExtractPaymentFields(data map[string]interface{}) domain.PaymentFields {
	return domain.PaymentFields{
		Email:          extractCustomerEmail(data),
		Name:           extractCustomerName(data),
		RegistrationID: extractRegistrationID(data),
		TransactionID:  firstValue(data, "transaction_id", "id", "payment_id", "order_id"),
		Amount:         firstValue(data, "amount", "value", "total", "price"),
		ProductID:      firstValue(data, "product_id", "product", "item_id"),
	}
}

func extractCustomerEmail(data map[string]interface{}) string {
	if v := nestedString(data, "customer", "email"); v != "" {
		return v
	}
	if v := firstString(data, "email", "buyer_email", "customer_email", "custom_field_2"); v != "" {
		return v
	}
	if v := jsonStringField(data["metadata"], "email"); v != "" {
		return v
	}
	return jsonStringField(data["user_data"], "email")
}

func extractCustomerName(data map[string]interface{}) string {
	if v := nestedString(data, "customer", "name"); v != "" {
		return v
	}
	if v := firstString(data, "name", "buyer_name", "customer_name", "custom_field_3"); v != "" {
		return v
	}
	if v := jsonStringField(data["metadata"], "name"); v != "" {
		return v
	}
	return jsonStringField(data["user_data"], "name")
}

func extractRegistrationID(data map[string]interface{}) string {
	if v := firstString(data, "registration_id", "custom_field_1", "external_id", "reference", "order_id"); v != "" {
		return v
	}
	if v := nestedString(data, "custom_fields", "registration_id"); v != "" {
		return v
	}
	if v := jsonStringField(data["metadata"], "registration_id"); v != "" {
		return v
	}
	if v := jsonStringField(data["user_data"], "registration_id"); v != "" {
		return v
	}
	return nestedString(data, "customer", "registration_id")
}

// firstString returns the first key whose value is a non-empty string.
func firstString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstValue returns the first key whose value is present. Non-string values
// (amounts and numeric ids) are kept as-is.
func firstValue(data map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v
	}
	return nil
}

// nestedString looks up data[parent][key] when parent is itself an object.
func nestedString(data map[string]interface{}, parent, key string) string {
	obj, ok := data[parent].(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}

// jsonStringField parses a JSON-encoded string value and returns the named
// string field from it. Anything that is not a parseable JSON object string
// is treated as absent.
func jsonStringField(raw interface{}, key string) string {
	encoded, ok := raw.(string)
	if !ok || encoded == "" {
		return ""
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(encoded), &parsed); err != nil {
		return ""
	}
	s, _ := parsed[key].(string)
	return s
}
