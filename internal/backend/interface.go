package backend

import (
	"context"
	"slices"

	"subcal/internal/core"
)

// Ports for the persistence adapters.
type (
	// SubscriptionStore is the per-owner record store.
	SubscriptionStore interface {
		ListSubscriptions(ctx context.Context, ownerID string) ([]core.Subscription, error)
		CreateSubscription(ctx context.Context, ownerID string, s core.Subscription) (core.Subscription, error)
		DeleteSubscription(ctx context.Context, ownerID, id string) error
	}

	// DueLister returns records across all owners by due day.
	DueLister interface {
		ListDueOnDays(ctx context.Context, days ...int) ([]core.OwnedSubscription, error)
	}

	// OwnerDirectory maps owners to their reminder email.
	OwnerDirectory interface {
		UpsertOwner(ctx context.Context, ownerID, email string) error
		OwnerEmail(ctx context.Context, ownerID string) (string, error)
	}

	// RunLedger guards the reminder dispatcher against running twice a day.
	RunLedger interface {
		ClaimReminderRun(ctx context.Context, date core.Date) (bool, error)
		FinishReminderRun(ctx context.Context, date core.Date, owners, reminders int) error
		ReleaseReminderRun(ctx context.Context, date core.Date) error
	}
)

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	SubscriptionStore
	DueLister
	OwnerDirectory
	RunLedger
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
