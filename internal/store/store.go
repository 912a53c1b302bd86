// Package store defines the persistence contract used by the services and a
// gorm-backed implementation of it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// MemberStore persists members.
type MemberStore interface {
	Create(ctx context.Context, member *db.Member) error
	Save(ctx context.Context, member *db.Member) error
	FindByID(ctx context.Context, id uint) (*db.Member, error)
	FindAll(ctx context.Context) ([]db.Member, error)
	DeleteByID(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)

	FindByEmail(ctx context.Context, email string) (*db.Member, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindBySubscriptionPlan(ctx context.Context, plan string) ([]db.Member, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*db.Member, error)
	CountWithSubscription(ctx context.Context) (int64, error)
	// FindRecent returns up to limit members, newest first.
	FindRecent(ctx context.Context, limit int) ([]db.Member, error)
}

// DonationStore persists donations.
type DonationStore interface {
	Create(ctx context.Context, donation *db.Donation) error
	Save(ctx context.Context, donation *db.Donation) error
	FindByID(ctx context.Context, id uint) (*db.Donation, error)
	FindAll(ctx context.Context) ([]db.Donation, error)
	DeleteByID(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)

	FindByTransactionID(ctx context.Context, transactionID string) (*db.Donation, error)
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)
	FindByType(ctx context.Context, donationType db.DonationType) ([]db.Donation, error)
	FindByEmail(ctx context.Context, email string) ([]db.Donation, error)
	// SumAmountBetween treats a nil bound as open and returns zero for an empty set.
	SumAmountBetween(ctx context.Context, from, to *time.Time) (decimal.Decimal, error)
	CountByTypeBetween(ctx context.Context, donationType db.DonationType, from, to *time.Time) (int64, error)
	// FindRecentByEmail returns up to limit donations ordered by creation time descending.
	FindRecentByEmail(ctx context.Context, email string, limit int) ([]db.Donation, error)
}

// ContentStore persists content blocks.
type ContentStore interface {
	Create(ctx context.Context, content *db.Content) error
	Save(ctx context.Context, content *db.Content) error
	FindByID(ctx context.Context, id uint) (*db.Content, error)
	FindAll(ctx context.Context) ([]db.Content, error)
	DeleteByID(ctx context.Context, id uint) error

	FindPublished(ctx context.Context) ([]db.Content, error)
	FindBySection(ctx context.Context, section string) ([]db.Content, error)
	FindBySectionAndPublished(ctx context.Context, section string, published bool) ([]db.Content, error)
	// FindLatestPublishedBySection returns the newest published row of a section.
	FindLatestPublishedBySection(ctx context.Context, section string) (*db.Content, error)
	FindBySectionsAndPublished(ctx context.Context, sections []string, published bool) ([]db.Content, error)
}

// Store groups the entity stores and scopes them to one transaction on demand.
type Store interface {
	Members() MemberStore
	Donations() DonationStore
	Contents() ContentStore
	// Transaction runs fn with a Store bound to a single database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

