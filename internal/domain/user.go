/**
 * @description
 * This file models the two unrelated user representations the service touches:
 *
 * 1. UserAccount / ProgressRecord — the activated customer documents written to
 *    the directory service (Firestore) when a payment is reconciled. These use
 *    `firestore` tags and server timestamps.
 * 2. User — the plain relational record behind the /api/users CRUD routes.
 *    It has no relation to UserAccount; it is a separate data model kept for
 *    the user-management surface.
 */
package domain

import "time"

// Access status values persisted on a UserAccount document.
const (
	AccessStatusActive   = "active"
	AccessStatusRefunded = "refunded"
)

// UserAccount is the customer profile document stored at users/{uid}.
// Profile fields are copied from the pending registration when one matched,
// or left null for fallback (basic) accounts.
type UserAccount struct {
	UID   string `firestore:"uid"`
	Email string `firestore:"email"`
	Name  string `firestore:"name"`

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

	AccessStatus        string      `firestore:"accessStatus"`
	HasFullAccess       bool        `firestore:"hasFullAccess"`
	IsActive            bool        `firestore:"isActive"`
	OnboardingCompleted bool        `firestore:"onboardingCompleted"`
	TransactionID       interface{} `firestore:"transactionId"`
	PurchaseAmount      interface{} `firestore:"purchaseAmount"`
	RegistrationID      string      `firestore:"registrationId,omitempty"`

	PurchaseCompletedAt time.Time `firestore:"purchaseCompletedAt,serverTimestamp"`
	CreatedAt           time.Time `firestore:"createdAt,serverTimestamp"`
	UpdatedAt           time.Time `firestore:"updatedAt,serverTimestamp"`
	RegistrationDate    time.Time `firestore:"registrationDate,serverTimestamp"`

	// Initial progress counters embedded on the profile document. The
	// per-user progress subcollection is the authoritative copy; these are
	// written once at activation and owned by the app features afterwards.
	TotalSessions int64 `firestore:"totalSessions"`
	CurrentLevel  int64 `firestore:"currentLevel"`
	TotalScore    int64 `firestore:"totalScore"`
	CurrentStreak int64 `firestore:"currentStreak"`
	LongestStreak int64 `firestore:"longestStreak"`
}

// NewUserAccountFromPending builds the full profile document for a customer
// whose pending registration matched the payment event.
func NewUserAccountFromPending(uid string, pending *PendingRegistration, transactionID, amount interface{}) UserAccount {
	return UserAccount{
		UID:                 uid,
		Email:               pending.Email,
		Name:                pending.Name,
		Age:                 pending.Age,
		Weight:              pending.Weight,
		Height:              pending.Height,
		Gender:              pending.Gender,
		Goal:                pending.Goal,
		ActivityLevel:       pending.ActivityLevel,
		DietaryRestrictions: pending.DietaryRestrictions,
		HealthConditions:    pending.HealthConditions,
		WorkoutPreference:   pending.WorkoutPreference,
		AvailableDays:       pending.AvailableDays,
		SessionDuration:     pending.SessionDuration,
		Notifications:       pending.Notifications,
		AffiliateCode:       pending.AffiliateCode,
		AccessStatus:        AccessStatusActive,
		HasFullAccess:       true,
		IsActive:            true,
		OnboardingCompleted: true,
		TransactionID:       transactionID,
		PurchaseAmount:      amount,
		RegistrationID:      pending.ID,
		CurrentLevel:        1,
	}
}

// NewBasicUserAccount builds the minimal profile document for a customer with
// no pending registration. Profile fields stay null and the customer still
// has to complete onboarding.
func NewBasicUserAccount(uid, email, name string, transactionID, amount interface{}) UserAccount {
	return UserAccount{
		UID:                 uid,
		Email:               email,
		Name:                name,
		AvailableDays:       []string{},
		Notifications:       true,
		AccessStatus:        AccessStatusActive,
		HasFullAccess:       true,
		IsActive:            true,
		OnboardingCompleted: false,
		TransactionID:       transactionID,
		PurchaseAmount:      amount,
		CurrentLevel:        1,
	}
}

// ProgressRecord is the gamification counter document created alongside
// account activation at users/{uid}/progress/current. This service writes it
// once and never reads it back.
type ProgressRecord struct {
	UserID           string     `firestore:"userId"`
	Level            int64      `firestore:"level"`
	TotalScore       int64      `firestore:"totalScore"`
	CurrentStreak    int64      `firestore:"currentStreak"`
	LongestStreak    int64      `firestore:"longestStreak"`
	LastActivityDate *time.Time `firestore:"lastActivityDate"`
	WeeklyGoal       int64      `firestore:"weeklyGoal"`
	MonthlyGoal      int64      `firestore:"monthlyGoal"`
	Achievements     []string   `firestore:"achievements"`
	CreatedAt        time.Time  `firestore:"createdAt,serverTimestamp"`
	UpdatedAt        time.Time  `firestore:"updatedAt,serverTimestamp"`
}

// NewProgressRecord returns the initial progress document for a freshly
// activated account.
func NewProgressRecord(uid string) ProgressRecord {
	return ProgressRecord{
		UserID:       uid,
		Level:        1,
		WeeklyGoal:   3,
		MonthlyGoal:  12,
		Achievements: []string{},
	}
}

// User is the relational record behind the user-management CRUD routes.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
