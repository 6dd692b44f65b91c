package profile

import (
	"context"
	"errors"
	"time"
)

// Role determines which dashboard and permission set apply to a user.
type Role string

const (
	RoleClient Role = "client"
	RoleDriver Role = "driver"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleDriver
}

// Record is the application-owned profile document, keyed by user id within
// the app namespace. At most one record exists per (namespace, user id) pair;
// records are never deleted by this service.
type Record struct {
	Email           string    `firestore:"email" json:"email"`
	Role            Role      `firestore:"role" json:"role"`
	CreatedAt       time.Time `firestore:"createdAt" json:"createdAt"`
	ProfileImageURL string    `firestore:"profileImageUrl" json:"profileImageUrl"`
	Verified        bool      `firestore:"isVerified" json:"isVerified"`
	Onboarded       bool      `firestore:"isOnboarded" json:"isOnboarded"`
}

// Default is the record created lazily for a session that has no profile yet.
func Default(email string, now time.Time) Record {
	return Record{
		Email:     email,
		Role:      RoleClient,
		CreatedAt: now,
		Verified:  true,
		Onboarded: false,
	}
}

// NewForRole is the record written at registration time. Drivers start
// unverified; clients need no verification.
func NewForRole(email string, role Role, now time.Time) Record {
	return Record{
		Email:     email,
		Role:      role,
		CreatedAt: now,
		Verified:  role != RoleDriver,
		Onboarded: false,
	}
}

// PendingDriver is a driver record awaiting verification.
type PendingDriver struct {
	UserID string `json:"userId"`
	Record
}

// ErrNotFound indicates no record exists for the requested user.
var ErrNotFound = errors.New("profile record not found")

// Repository defines the interface for profile record access.
type Repository interface {
	Get(ctx context.Context, userID string) (*Record, error)
	Set(ctx context.Context, userID string, rec Record) error
	ListPendingDrivers(ctx context.Context, limit int) ([]PendingDriver, error)
}
