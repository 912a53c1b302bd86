package store

import (
	"context"

	"github.com/programalilian/backend/internal/db"
	"gorm.io/gorm"
)

type gormMemberStore struct {
	db *gorm.DB
}

func (s *gormMemberStore) Create(ctx context.Context, member *db.Member) error {
	return translate(s.db.WithContext(ctx).Create(member).Error)
}

func (s *gormMemberStore) Save(ctx context.Context, member *db.Member) error {
	return translate(s.db.WithContext(ctx).Save(member).Error)
}

func (s *gormMemberStore) FindByID(ctx context.Context, id uint) (*db.Member, error) {
	var member db.Member
	if err := s.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (s *gormMemberStore) FindAll(ctx context.Context) ([]db.Member, error) {
	var members []db.Member
	if err := s.db.WithContext(ctx).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (s *gormMemberStore) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&db.Member{}, id).Error
}

func (s *gormMemberStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Member{}).Count(&count).Error
	return count, err
}

func (s *gormMemberStore) FindByEmail(ctx context.Context, email string) (*db.Member, error) {
	var member db.Member
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (s *gormMemberStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Member{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormMemberStore) FindBySubscriptionPlan(ctx context.Context, plan string) ([]db.Member, error) {
	var members []db.Member
	if err := s.db.WithContext(ctx).Where("subscription_plan = ?", plan).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (s *gormMemberStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*db.Member, error) {
	var member db.Member
	if err := s.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (s *gormMemberStore) CountWithSubscription(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Member{}).Where("subscription_id IS NOT NULL").Count(&count).Error
	return count, err
}

func (s *gormMemberStore) FindRecent(ctx context.Context, limit int) ([]db.Member, error) {
	var members []db.Member
	if err := s.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Limit(normalizeLimit(limit)).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
