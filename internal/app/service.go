/**
 * @description
 * This file defines the application service for the webhook pipeline and the
 * interface it needs from the directory service (the document store plus
 * identity provider backing customer accounts).
 *
 * @notes
 * - The directory client is injected explicitly. The service never
 *   lazy-initializes it; main constructs the client once at startup and fails
 *   fast on invalid credentials.
 * - Directory calls are independent best-effort writes. There is no
 *   transaction spanning the account document, the progress document and the
 *   pending-registration deletion; a crash between them can leave partial
 *   state, and redelivery is the sender's only recourse.
 */
package app

import (
	"context"

	"github.com/nutraflex/webhook-service/internal/domain"
)

// DirectoryClient is the slice of the directory service used by payment
// reconciliation: pending-registration documents, auth identities, customer
// account documents and progress documents.
type DirectoryClient interface {
	// PendingRegistration fetches a pending registration by its document id.
	// Returns domain.ErrPendingRegistrationNotFound when absent.
	PendingRegistration(ctx context.Context, id string) (*domain.PendingRegistration, error)
	// PendingRegistrationsByEmail returns up to limit pending registrations
	// recorded for the email, in no particular order.
	PendingRegistrationsByEmail(ctx context.Context, email string, limit int) ([]*domain.PendingRegistration, error)
	DeletePendingRegistration(ctx context.Context, id string) error

	// CreateIdentity creates an auth identity and returns its uid. If an
	// identity already exists for the email, the existing uid is returned.
	CreateIdentity(ctx context.Context, email, password, displayName string) (string, error)
	// IdentityByEmail returns the uid for an email, or
	// domain.ErrIdentityNotFound.
	IdentityByEmail(ctx context.Context, email string) (string, error)
	DisableIdentity(ctx context.Context, uid string) error

	SaveUserAccount(ctx context.Context, account domain.UserAccount) error
	// MarkUserAccountActive merge-updates an existing account document to
	// active/full-access without touching profile fields.
	MarkUserAccountActive(ctx context.Context, uid string, transactionID, amount interface{}) error
	// MarkUserAccountRefunded flips an account document to refunded/no-access.
	MarkUserAccountRefunded(ctx context.Context, uid string) error
	CreateProgressRecord(ctx context.Context, record domain.ProgressRecord) error
}

// Service runs the payment reconciliation pipeline against the directory
// service.
type Service struct {
	directory DirectoryClient
}

// NewService creates the application service with its directory dependency.
func NewService(directory DirectoryClient) *Service {
	return &Service{directory: directory}
}
