/**
 * @description
 * Webhook signature validation. Cakto signs each delivery with an HMAC-SHA256
 * digest of the raw request body, sent as `X-Cakto-Signature: sha256=<hex>`.
 */
package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// validateSignature checks a header signature against the HMAC-SHA256 digest
// of the raw body. It fails closed: an empty header or secret never
// validates. The comparison is constant-time.
func validateSignature(body []byte, headerSignature, secret string) bool {
	if headerSignature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(headerSignature))
}
