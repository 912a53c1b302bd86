package store

import (
	"context"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type gormDonationStore struct {
	db *gorm.DB
}

func (s *gormDonationStore) Create(ctx context.Context, donation *db.Donation) error {
	return translate(s.db.WithContext(ctx).Create(donation).Error)
}

func (s *gormDonationStore) Save(ctx context.Context, donation *db.Donation) error {
	return translate(s.db.WithContext(ctx).Save(donation).Error)
}

func (s *gormDonationStore) FindByID(ctx context.Context, id uint) (*db.Donation, error) {
	var donation db.Donation
	if err := s.db.WithContext(ctx).First(&donation, id).Error; err != nil {
		return nil, translate(err)
	}
	return &donation, nil
}

func (s *gormDonationStore) FindAll(ctx context.Context) ([]db.Donation, error) {
	var donations []db.Donation
	if err := s.db.WithContext(ctx).Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

func (s *gormDonationStore) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&db.Donation{}, id).Error
}

func (s *gormDonationStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Donation{}).Count(&count).Error
	return count, err
}

func (s *gormDonationStore) FindByTransactionID(ctx context.Context, transactionID string) (*db.Donation, error) {
	var donation db.Donation
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&donation).Error; err != nil {
		return nil, translate(err)
	}
	return &donation, nil
}

func (s *gormDonationStore) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Donation{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormDonationStore) FindByType(ctx context.Context, donationType db.DonationType) ([]db.Donation, error) {
	var donations []db.Donation
	if err := s.db.WithContext(ctx).Where("type = ?", donationType).Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

func (s *gormDonationStore) FindByEmail(ctx context.Context, email string) ([]db.Donation, error) {
	var donations []db.Donation
	if err := s.db.WithContext(ctx).Where("email = ?", email).Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

func (s *gormDonationStore) SumAmountBetween(ctx context.Context, from, to *time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	query := withCreatedRange(s.db.WithContext(ctx).Model(&db.Donation{}), from, to)
	if err := query.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (s *gormDonationStore) CountByTypeBetween(ctx context.Context, donationType db.DonationType, from, to *time.Time) (int64, error) {
	var count int64
	query := withCreatedRange(s.db.WithContext(ctx).Model(&db.Donation{}), from, to)
	err := query.Where("type = ?", donationType).Count(&count).Error
	return count, err
}

func (s *gormDonationStore) FindRecentByEmail(ctx context.Context, email string, limit int) ([]db.Donation, error) {
	var donations []db.Donation
	if err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at desc").
		Order("id desc").
		Limit(normalizeLimit(limit)).
		Find(&donations).Error; err != nil {
		return nil, err
	}
	return donations, nil
}

// withCreatedRange 为查询附加 created_at 区间，nil 边界视为不限。
func withCreatedRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	return query
}
