package store

import (
	"context"

	"github.com/programalilian/backend/internal/db"
	"gorm.io/gorm"
)

type gormContentStore struct {
	db *gorm.DB
}

func (s *gormContentStore) Create(ctx context.Context, content *db.Content) error {
	return translate(s.db.WithContext(ctx).Create(content).Error)
}

func (s *gormContentStore) Save(ctx context.Context, content *db.Content) error {
	return translate(s.db.WithContext(ctx).Save(content).Error)
}

func (s *gormContentStore) FindByID(ctx context.Context, id uint) (*db.Content, error) {
	var content db.Content
	if err := s.db.WithContext(ctx).First(&content, id).Error; err != nil {
		return nil, translate(err)
	}
	return &content, nil
}

func (s *gormContentStore) FindAll(ctx context.Context) ([]db.Content, error) {
	return s.find(s.db.WithContext(ctx))
}

// DeleteByID 物理删除，记录不存在时不报错。
func (s *gormContentStore) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&db.Content{}, id).Error
}

func (s *gormContentStore) FindPublished(ctx context.Context) ([]db.Content, error) {
	return s.find(s.db.WithContext(ctx).Where("published = ?", true))
}

func (s *gormContentStore) FindBySection(ctx context.Context, section string) ([]db.Content, error) {
	return s.find(s.db.WithContext(ctx).Where("section = ?", section))
}

func (s *gormContentStore) FindBySectionAndPublished(ctx context.Context, section string, published bool) ([]db.Content, error) {
	return s.find(s.db.WithContext(ctx).Where("section = ? AND published = ?", section, published))
}

func (s *gormContentStore) FindLatestPublishedBySection(ctx context.Context, section string) (*db.Content, error) {
	var content db.Content
	if err := s.db.WithContext(ctx).
		Where("section = ? AND published = ?", section, true).
		Order("created_at desc").
		Order("id desc").
		Limit(1).
		Take(&content).Error; err != nil {
		return nil, translate(err)
	}
	return &content, nil
}

func (s *gormContentStore) FindBySectionsAndPublished(ctx context.Context, sections []string, published bool) ([]db.Content, error) {
	if len(sections) == 0 {
		return []db.Content{}, nil
	}
	return s.find(s.db.WithContext(ctx).Where("section IN ? AND published = ?", sections, published))
}

func (s *gormContentStore) find(query *gorm.DB) ([]db.Content, error) {
	var items []db.Content
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
