package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps gdb. The connection should be opened with
// TranslateError enabled so unique violations surface as ErrDuplicate.
func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

func (s *GormStore) Members() MemberStore {
	return &gormMemberStore{db: s.db}
}

func (s *GormStore) Donations() DonationStore {
	return &gormDonationStore{db: s.db}
}

func (s *GormStore) Contents() ContentStore {
	return &gormContentStore{db: s.db}
}

// Transaction runs fn inside a gorm transaction; an error from fn rolls it back.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps gorm errors onto the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}
