/**
 * @description
 * This file models the pending-registration documents stored in the directory
 * service. A pending registration is a provisional signup captured by the
 * registration flow before payment completes; the reconciliation engine
 * consumes it when the matching payment-approved webhook arrives.
 *
 * @notes
 * - The struct tags follow the Firestore field names used by the frontend
 *   registration flow, which owns document creation.
 * - At most one valid (non-expired) record is treated as authoritative per
 *   email; when duplicates exist the most recently created valid one wins.
 */
package domain

import "time"

// PendingRegistration is a provisional signup awaiting payment confirmation.
type PendingRegistration struct {
	ID       string `firestore:"-"`
	Email    string `firestore:"email"`
	Name     string `firestore:"name"`
	Password string `firestore:"password"`

	Age                 *int64   `firestore:"age"`
	Weight              *float64 `firestore:"weight"`
	Height              *float64 `firestore:"height"`
	Gender              *string  `firestore:"gender"`
	Goal                *string  `firestore:"goal"`
	ActivityLevel       *string  `firestore:"activityLevel"`
	DietaryRestrictions *string  `firestore:"dietaryRestrictions"`
	HealthConditions    *string  `firestore:"healthConditions"`
	WorkoutPreference   *string  `firestore:"workoutPreference"`
	AvailableDays       []string `firestore:"availableDays"`
	SessionDuration     *int64   `firestore:"sessionDuration"`
	Notifications       bool     `firestore:"notifications"`
	AffiliateCode       *string  `firestore:"affiliateCode"`

	CreatedAt time.Time `firestore:"createdAt"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

// Expired reports whether the registration's validity window has passed.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}
