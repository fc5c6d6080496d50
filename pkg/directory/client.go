/**
 * @description
 * This package provides the client for the directory service backing customer
 * accounts: Firestore for documents and Firebase Auth for identities. It
 * implements the app.DirectoryClient interface consumed by the reconciliation
 * engine.
 *
 * @dependencies
 * - firebase.google.com/go/v4: Firebase Admin SDK (app bootstrap + auth).
 * - cloud.google.com/go/firestore: Firestore document operations.
 * - google.golang.org/api/option: Credential wiring.
 *
 * @notes
 * - The client is constructed once at startup and injected; there is no lazy
 *   global handle. NewClient fails fast when credentials are missing or
 *   invalid.
 * - A credentials file path takes precedence over the inline JSON blob when
 *   both are configured.
 * - Progress documents live at users/{uid}/progress/current. An older layout
 *   kept them in a top-level user_progress collection; that layout is
 *   superseded and not written.
 */
package directory

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nutraflex/webhook-service/internal/domain"
)

const (
	pendingRegistrationsCollection = "pending_registrations"
	usersCollection                = "users"
	progressSubcollection          = "progress"
	progressDocument               = "current"
)

// Client talks to Firestore and Firebase Auth on behalf of the reconciliation
// engine.
type Client struct {
	fs   *firestore.Client
	auth *auth.Client
}

// NewClient initializes the Firebase app and its Firestore and Auth clients.
// credentialsPath wins over credentialsJSON when both are set.
func NewClient(ctx context.Context, credentialsPath, credentialsJSON string) (*Client, error) {
	var opt option.ClientOption
	switch {
	case credentialsPath != "":
		opt = option.WithCredentialsFile(credentialsPath)
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	default:
		return nil, errors.New("directory credentials are not configured: set FIREBASE_CREDENTIALS_PATH or FIREBASE_CREDENTIALS_JSON")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth client: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}

	return &Client{fs: fsClient, auth: authClient}, nil
}

// Close releases the underlying Firestore connection.
func (c *Client) Close() error {
	return c.fs.Close()
}

// PendingRegistration fetches a pending registration document by id.
func (c *Client) PendingRegistration(ctx context.Context, id string) (*domain.PendingRegistration, error) {
	snap, err := c.fs.Collection(pendingRegistrationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrPendingRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to fetch pending registration %s: %w", id, err)
	}

	var pending domain.PendingRegistration
	if err := snap.DataTo(&pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending registration %s: %w", id, err)
	}
	pending.ID = snap.Ref.ID
	return &pending, nil
}

// PendingRegistrationsByEmail queries pending registrations by the email the
// registration flow recorded.
func (c *Client) PendingRegistrationsByEmail(ctx context.Context, email string, limit int) ([]*domain.PendingRegistration, error) {
	iter := c.fs.Collection(pendingRegistrationsCollection).
		Where("email", "==", email).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var results []*domain.PendingRegistration
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query pending registrations for %s: %w", email, err)
		}

		var pending domain.PendingRegistration
		if err := snap.DataTo(&pending); err != nil {
			log.Printf("Skipping undecodable pending registration %s: %v", snap.Ref.ID, err)
			continue
		}
		pending.ID = snap.Ref.ID
		results = append(results, &pending)
	}
	return results, nil
}

// DeletePendingRegistration removes a consumed or expired pending
// registration document.
func (c *Client) DeletePendingRegistration(ctx context.Context, id string) error {
	if _, err := c.fs.Collection(pendingRegistrationsCollection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete pending registration %s: %w", id, err)
	}
	return nil
}

// CreateIdentity creates a Firebase Auth user and returns its uid. When the
// email is already registered, the existing identity's uid is returned
// instead; payment reconciliation treats the two cases identically.
func (c *Client) CreateIdentity(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		EmailVerified(true)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}

	record, err := c.auth.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			existing, lookupErr := c.auth.GetUserByEmail(ctx, email)
			if lookupErr != nil {
				return "", fmt.Errorf("email %s already registered but lookup failed: %w", email, lookupErr)
			}
			log.Printf("Identity already exists for %s, reusing uid %s", email, existing.UID)
			return existing.UID, nil
		}
		return "", fmt.Errorf("failed to create identity for %s: %w", email, err)
	}
	return record.UID, nil
}

// IdentityByEmail resolves an email to its auth uid.
func (c *Client) IdentityByEmail(ctx context.Context, email string) (string, error) {
	record, err := c.auth.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", domain.ErrIdentityNotFound
		}
		return "", fmt.Errorf("failed to look up identity for %s: %w", email, err)
	}
	return record.UID, nil
}

// DisableIdentity blocks sign-in for a refunded customer.
func (c *Client) DisableIdentity(ctx context.Context, uid string) error {
	if _, err := c.auth.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(true)); err != nil {
		return fmt.Errorf("failed to disable identity %s: %w", uid, err)
	}
	return nil
}

// SaveUserAccount writes the full account document at users/{uid}.
func (c *Client) SaveUserAccount(ctx context.Context, account domain.UserAccount) error {
	if _, err := c.fs.Collection(usersCollection).Doc(account.UID).Set(ctx, account); err != nil {
		return fmt.Errorf("failed to save account document %s: %w", account.UID, err)
	}
	return nil
}

// MarkUserAccountActive merge-writes the access and payment fields onto an
// existing account document, leaving profile fields untouched.
func (c *Client) MarkUserAccountActive(ctx context.Context, uid string, transactionID, amount interface{}) error {
	updates := map[string]interface{}{
		"accessStatus":        domain.AccessStatusActive,
		"hasFullAccess":       true,
		"isActive":            true,
		"onboardingCompleted": true,
		"purchaseCompletedAt": firestore.ServerTimestamp,
		"transactionId":       transactionID,
		"purchaseAmount":      amount,
		"updatedAt":           firestore.ServerTimestamp,
	}
	if _, err := c.fs.Collection(usersCollection).Doc(uid).Set(ctx, updates, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update access for account %s: %w", uid, err)
	}
	return nil
}

// MarkUserAccountRefunded flips an account document to refunded/no-access.
func (c *Client) MarkUserAccountRefunded(ctx context.Context, uid string) error {
	updates := map[string]interface{}{
		"accessStatus":  domain.AccessStatusRefunded,
		"hasFullAccess": false,
		"isActive":      false,
		"updatedAt":     firestore.ServerTimestamp,
	}
	if _, err := c.fs.Collection(usersCollection).Doc(uid).Set(ctx, updates, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to mark account %s refunded: %w", uid, err)
	}
	return nil
}

// CreateProgressRecord writes the initial progress document at
// users/{uid}/progress/current.
func (c *Client) CreateProgressRecord(ctx context.Context, record domain.ProgressRecord) error {
	ref := c.fs.Collection(usersCollection).
		Doc(record.UserID).
		Collection(progressSubcollection).
		Doc(progressDocument)
	if _, err := ref.Set(ctx, record); err != nil {
		return fmt.Errorf("failed to create progress document for %s: %w", record.UserID, err)
	}
	return nil
}
