/**
 * @description
 * Payment reconciliation. An approved payment has to be matched back to the
 * customer it belongs to before access can be released. The match runs as an
 * ordered list of identification strategies, each returning a tagged result;
 * the first success terminates the run:
 *
 *   1. registration_id — the payload carried an explicit pending-registration
 *      id (safest: the id was planted by our own checkout flow).
 *   2. email — look up pending registrations by the customer email; the most
 *      recently created non-expired record wins.
 *   3. basic_account — no pending registration matched; activate an existing
 *      identity, or create a minimal account the customer completes later.
 *
 * Refused payments are acknowledged without touching the directory. Refunded
 * payments disable the identity and flip the account to refunded.
 *
 * @notes
 * - Expired pending registrations are deleted whenever a lookup discovers
 *   them; they never satisfy a match.
 * - A registration-id email mismatch fails that strategy only; the run falls
 *   through to the email lookup instead of rejecting the whole event.
 */
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nutraflex/webhook-service/internal/domain"
)

// Identification method names reported back to the processor.
const (
	MethodRegistrationID = "registration_id"
	MethodEmail          = "email"
	MethodBasicAccount   = "basic_account"
)

const pendingRegistrationQueryLimit = 5

type identificationStrategy struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// ProcessApproved matches an approved payment to a customer and releases
// access. The overall result succeeds if any strategy succeeds; it fails only
// when every strategy fails, carrying the last error.
func (s *Service) ProcessApproved(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult {
	if fields.Email == "" {
		log.Println("level=error component=service flow=reconcile msg=\"customer email not found in webhook payload\"")
		return domain.ReconcileResult{Err: errors.New("customer email not found in webhook payload")}
	}

	log.Printf("level=info component=service flow=reconcile msg=\"processing approved payment\" email=%s registration_id=%q transaction_id=%v amount=%v",
		fields.Email, fields.RegistrationID, fields.TransactionID, fields.Amount)

	var strategies []identificationStrategy
	if fields.RegistrationID != "" {
		strategies = append(strategies, identificationStrategy{
			name: MethodRegistrationID,
			run:  func(ctx context.Context) (string, error) { return s.activateByRegistrationID(ctx, fields) },
		})
	}
	strategies = append(strategies,
		identificationStrategy{
			name: MethodEmail,
			run:  func(ctx context.Context) (string, error) { return s.activateByEmail(ctx, fields) },
		},
		identificationStrategy{
			name: MethodBasicAccount,
			run:  func(ctx context.Context) (string, error) { return s.activateBasicAccount(ctx, fields) },
		},
	)

	var lastErr error
	for _, strat := range strategies {
		uid, err := strat.run(ctx)
		if err == nil {
			log.Printf("level=info component=service flow=reconcile msg=\"access released\" email=%s method=%s uid=%s", fields.Email, strat.name, uid)
			return domain.ReconcileResult{
				Success: true,
				UserUID: uid,
				Method:  strat.name,
				Message: fmt.Sprintf("account activated for %s", fields.Email),
			}
		}
		lastErr = err
		log.Printf("level=warn component=service flow=reconcile msg=\"identification strategy failed\" strategy=%s email=%s err=%v", strat.name, fields.Email, err)
	}

	return domain.ReconcileResult{Err: fmt.Errorf("no identification strategy could activate an account: %w", lastErr)}
}

// ProcessRefused acknowledges a refused payment. No directory state changes.
func (s *Service) ProcessRefused(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult {
	log.Printf("level=warn component=service flow=reconcile msg=\"payment refused\" email=%s", fields.Email)
	// TODO: notify the customer that the payment was refused.
	return domain.ReconcileResult{
		Success: true,
		Message: "refused payment processed",
	}
}

// ProcessRefunded revokes access for a refunded payment: the auth identity is
// disabled and the account document flipped to refunded. A missing identity
// is a reported business failure, not an infrastructure error.
func (s *Service) ProcessRefunded(ctx context.Context, fields domain.PaymentFields) domain.ReconcileResult {
	log.Printf("level=warn component=service flow=reconcile msg=\"payment refunded\" email=%s", fields.Email)

	uid, err := s.directory.IdentityByEmail(ctx, fields.Email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return domain.ReconcileResult{Err: fmt.Errorf("user not found for refund: %s", fields.Email)}
		}
		return domain.ReconcileResult{Err: fmt.Errorf("failed to look up identity for refund: %w", err)}
	}

	if err := s.directory.DisableIdentity(ctx, uid); err != nil {
		return domain.ReconcileResult{Err: fmt.Errorf("failed to disable identity %s: %w", uid, err)}
	}
	if err := s.directory.MarkUserAccountRefunded(ctx, uid); err != nil {
		return domain.ReconcileResult{Err: fmt.Errorf("failed to mark account %s refunded: %w", uid, err)}
	}

	log.Printf("level=info component=service flow=reconcile msg=\"access revoked\" email=%s uid=%s", fields.Email, uid)
	return domain.ReconcileResult{
		Success: true,
		UserUID: uid,
		Message: fmt.Sprintf("access revoked for %s", fields.Email),
	}
}

// activateByRegistrationID resolves the pending registration the checkout
// flow planted in the payload. The stored email must match the payment's
// email, a defense against a spoofed or mistyped registration id.
func (s *Service) activateByRegistrationID(ctx context.Context, fields domain.PaymentFields) (string, error) {
	pending, err := s.directory.PendingRegistration(ctx, fields.RegistrationID)
	if err != nil {
		return "", fmt.Errorf("pending registration lookup for id %s: %w", fields.RegistrationID, err)
	}
	pending.ID = fields.RegistrationID

	if pending.Email != fields.Email {
		return "", fmt.Errorf("email does not match pending registration %s: expected %s, got %s", pending.ID, pending.Email, fields.Email)
	}

	if pending.Expired(time.Now()) {
		if delErr := s.directory.DeletePendingRegistration(ctx, pending.ID); delErr != nil {
			log.Printf("level=warn component=service flow=reconcile msg=\"failed to delete expired pending registration\" registration_id=%s err=%v", pending.ID, delErr)
		}
		return "", fmt.Errorf("pending registration %s is expired", pending.ID)
	}

	return s.activateFromPending(ctx, pending, fields)
}

// activateByEmail falls back to matching pending registrations by the
// customer email. Multiple records can exist when the customer restarted the
// signup flow; the most recently created valid one wins.
func (s *Service) activateByEmail(ctx context.Context, fields domain.PaymentFields) (string, error) {
	candidates, err := s.directory.PendingRegistrationsByEmail(ctx, fields.Email, pendingRegistrationQueryLimit)
	if err != nil {
		return "", fmt.Errorf("pending registration lookup for email %s: %w", fields.Email, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no pending registration found for email: %s", fields.Email)
	}

	now := time.Now()
	var valid *domain.PendingRegistration
	for _, candidate := range candidates {
		if candidate.Expired(now) {
			if delErr := s.directory.DeletePendingRegistration(ctx, candidate.ID); delErr != nil {
				log.Printf("level=warn component=service flow=reconcile msg=\"failed to delete expired pending registration\" registration_id=%s err=%v", candidate.ID, delErr)
			}
			continue
		}
		if valid == nil || candidate.CreatedAt.After(valid.CreatedAt) {
			valid = candidate
		}
	}
	if valid == nil {
		return "", fmt.Errorf("all pending registrations for %s are expired", fields.Email)
	}

	return s.activateFromPending(ctx, valid, fields)
}

// activateFromPending turns a matched pending registration into a live
// account: auth identity, profile document, progress document, and finally
// consumption of the pending record. The three writes are independent; there
// is no atomicity across them.
func (s *Service) activateFromPending(ctx context.Context, pending *domain.PendingRegistration, fields domain.PaymentFields) (string, error) {
	uid, err := s.directory.CreateIdentity(ctx, pending.Email, pending.Password, pending.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create identity for %s: %w", pending.Email, err)
	}

	account := domain.NewUserAccountFromPending(uid, pending, fields.TransactionID, fields.Amount)
	if err := s.directory.SaveUserAccount(ctx, account); err != nil {
		return "", fmt.Errorf("failed to save account document for %s: %w", uid, err)
	}

	if err := s.directory.CreateProgressRecord(ctx, domain.NewProgressRecord(uid)); err != nil {
		return "", fmt.Errorf("failed to create progress document for %s: %w", uid, err)
	}

	if err := s.directory.DeletePendingRegistration(ctx, pending.ID); err != nil {
		log.Printf("level=warn component=service flow=reconcile msg=\"account activated but pending registration was not deleted\" registration_id=%s uid=%s err=%v", pending.ID, uid, err)
	} else {
		log.Printf("level=info component=service flow=reconcile msg=\"pending registration consumed\" registration_id=%s uid=%s", pending.ID, uid)
	}

	return uid, nil
}

// activateBasicAccount is the last resort when no pending registration
// matched. An existing identity is merge-updated to full access; otherwise a
// minimal account is created with a generated password.
func (s *Service) activateBasicAccount(ctx context.Context, fields domain.PaymentFields) (string, error) {
	uid, err := s.directory.IdentityByEmail(ctx, fields.Email)
	switch {
	case err == nil:
		if updateErr := s.directory.MarkUserAccountActive(ctx, uid, fields.TransactionID, fields.Amount); updateErr != nil {
			return "", fmt.Errorf("failed to update access for existing user %s: %w", uid, updateErr)
		}
		log.Printf("level=info component=service flow=reconcile msg=\"access updated for existing user\" email=%s uid=%s", fields.Email, uid)
		return uid, nil
	case errors.Is(err, domain.ErrIdentityNotFound):
		// fall through to account creation
	default:
		return "", fmt.Errorf("identity lookup for %s: %w", fields.Email, err)
	}

	// The generated password is a payment-flow artifact, not something the
	// customer chose. TODO: send a welcome email with a password-reset link
	// so the customer can actually sign in.
	uid, err = s.directory.CreateIdentity(ctx, fields.Email, generatePassword(), fields.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create identity for %s: %w", fields.Email, err)
	}

	account := domain.NewBasicUserAccount(uid, fields.Email, fields.Name, fields.TransactionID, fields.Amount)
	if err := s.directory.SaveUserAccount(ctx, account); err != nil {
		return "", fmt.Errorf("failed to save basic account document for %s: %w", uid, err)
	}
	if err := s.directory.CreateProgressRecord(ctx, domain.NewProgressRecord(uid)); err != nil {
		return "", fmt.Errorf("failed to create progress document for %s: %w", uid, err)
	}

	log.Printf("level=info component=service flow=reconcile msg=\"basic account created\" email=%s uid=%s", fields.Email, uid)
	return uid, nil
}

// generatePassword returns a random url-safe token for accounts created
// without a staged password.
func generatePassword() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in no state to mint
		// credentials at all.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
