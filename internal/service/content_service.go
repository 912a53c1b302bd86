package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/imaging"
	"github.com/programalilian/backend/internal/logger"
	"github.com/programalilian/backend/internal/store"
)

// UpcomingLimit caps the number of items returned by GetUpcoming.
const UpcomingLimit = 8

// UpcomingSections are the sections that feed the upcoming list.
var UpcomingSections = []string{"events", "talks", "social-posts"}

// ContentService manages the editable site content and its images.
type ContentService struct {
	store    store.Store
	ingestor *imaging.Ingestor
	log      *logger.Logger
	now      func() time.Time
}

// ContentInput carries every editable field of a content block. Published
// defaults to true on Create and to false on Update when nil. ImageData is
// only written when non-nil.
type ContentInput struct {
	Section     string `validate:"max=100"`
	Subtype     string `validate:"max=100"`
	Title       string `validate:"max=1000"`
	Content     string
	Subtitle    string
	ButtonText1 string `validate:"max=255"`
	ButtonURL1  string `validate:"max=255"`
	ButtonText2 string `validate:"max=255"`
	ButtonURL2  string `validate:"max=255"`
	Date        string `validate:"max=255"`
	Link        string `validate:"max=255"`
	Published   *bool
	ImageData   []byte
	ImageType   string `validate:"max=100"`
}

// NewContentService creates a ContentService instance.
func NewContentService(st store.Store, ingestor *imaging.Ingestor, log *logger.Logger) *ContentService {
	if ingestor == nil {
		ingestor = imaging.New(imaging.DefaultOptions())
	}
	return &ContentService{
		store:    st,
		ingestor: ingestor,
		log:      log.With("service", "ContentService"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetPublished returns every published block.
func (s *ContentService) GetPublished(ctx context.Context) ([]db.Content, error) {
	return s.store.Contents().FindPublished(ctx)
}

// GetAll returns every block, published or not.
func (s *ContentService) GetAll(ctx context.Context) ([]db.Content, error) {
	return s.store.Contents().FindAll(ctx)
}

// GetBySection returns the published blocks of one section.
func (s *ContentService) GetBySection(ctx context.Context, section string) ([]db.Content, error) {
	return s.store.Contents().FindBySectionAndPublished(ctx, strings.TrimSpace(section), true)
}

// GetSingleBySection returns the newest published block of a section.
func (s *ContentService) GetSingleBySection(ctx context.Context, section string) (*db.Content, error) {
	content, err := s.store.Contents().FindLatestPublishedBySection(ctx, strings.TrimSpace(section))
	return content, mapContentErr(err)
}

// GetByID returns ErrContentNotFound when no block has the id.
func (s *ContentService) GetByID(ctx context.Context, id uint) (*db.Content, error) {
	content, err := s.store.Contents().FindByID(ctx, id)
	return content, mapContentErr(err)
}

// GetUpcoming merges the published events, talks and social posts, newest
// first, and keeps at most UpcomingLimit of them.
func (s *ContentService) GetUpcoming(ctx context.Context) ([]db.Content, error) {
	items, err := s.store.Contents().FindBySectionsAndPublished(ctx, UpcomingSections, true)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > UpcomingLimit {
		items = items[:UpcomingLimit]
	}
	return items, nil
}

// Create stores a new block. The id is always assigned by the store.
func (s *ContentService) Create(ctx context.Context, input ContentInput) (*db.Content, error) {
	input, err := normalizeContentInput(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	content := db.Content{CreatedAt: now, UpdatedAt: now}
	content.Subtype = input.Subtype
	applyContentInput(&content, input, true)
	if input.ImageData != nil {
		content.ImageData = input.ImageData
		content.ImageType = input.ImageType
	}
	if !content.HasImage() {
		content.ImageData = nil
		content.ImageType = ""
	}

	if err := s.store.Contents().Create(ctx, &content); err != nil {
		return nil, err
	}
	s.log.Info("content created", "contentId", content.ID, "section", content.Section)
	return &content, nil
}

// CreateWithImage compresses raw through the ingestor before storing the
// block. Ingestion failures abort the creation and nothing is written.
func (s *ContentService) CreateWithImage(ctx context.Context, input ContentInput, raw []byte) (*db.Content, error) {
	input.ImageData = nil
	input.ImageType = ""
	if len(raw) > 0 {
		compressed, err := s.ingestor.Ingest(raw)
		if err != nil {
			s.log.Warn("image rejected", "section", input.Section, "bytes", len(raw), "error", err)
			return nil, err
		}
		input.ImageData = compressed
		input.ImageType = imaging.OutputMIMEType
	}
	return s.Create(ctx, input)
}

// Update overwrites every editable field of an existing block. Fields left
// empty in input are cleared. The stored image is kept unless input carries
// new bytes.
func (s *ContentService) Update(ctx context.Context, id uint, input ContentInput) (*db.Content, error) {
	input, err := normalizeContentInput(input)
	if err != nil {
		return nil, err
	}

	var updated *db.Content
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		content, err := tx.Contents().FindByID(ctx, id)
		if err != nil {
			return mapContentErr(err)
		}

		if input.Subtype != "" {
			content.Subtype = input.Subtype
		}
		applyContentInput(content, input, false)
		if input.ImageData != nil {
			content.ImageData = input.ImageData
			content.ImageType = input.ImageType
		}
		content.UpdatedAt = s.now()

		if err := tx.Contents().Save(ctx, content); err != nil {
			return err
		}
		updated = content
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("content updated", "contentId", id)
	return updated, nil
}

// Delete removes a block. Unknown ids are not an error.
func (s *ContentService) Delete(ctx context.Context, id uint) error {
	if err := s.store.Contents().DeleteByID(ctx, id); err != nil {
		return err
	}
	s.log.Info("content deleted", "contentId", id)
	return nil
}

// Image returns the stored image bytes and their MIME type.
func (s *ContentService) Image(ctx context.Context, id uint) ([]byte, string, error) {
	content, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !content.HasImage() {
		return nil, "", ErrContentNotFound
	}
	imageType := content.ImageType
	if imageType == "" {
		imageType = imaging.OutputMIMEType
	}
	return content.ImageData, imageType, nil
}

// CompressImage runs raw through the ingestor without storing anything.
func (s *ContentService) CompressImage(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, invalidInput("image", "is required")
	}
	return s.ingestor.Ingest(raw)
}

func normalizeContentInput(input ContentInput) (ContentInput, error) {
	input.Section = strings.TrimSpace(input.Section)
	input.Subtype = strings.TrimSpace(input.Subtype)
	input.ImageType = strings.TrimSpace(input.ImageType)
	if input.Section == "" {
		return input, invalidInput("section", "is required")
	}
	if err := validateStruct(input); err != nil {
		return input, err
	}
	return input, nil
}

// applyContentInput copies the text fields and the published flag. Subtype is
// left to the caller: updates keep the stored value unless a new one is given.
func applyContentInput(content *db.Content, input ContentInput, publishedDefault bool) {
	content.Section = input.Section
	content.Title = input.Title
	content.Content = input.Content
	content.Subtitle = input.Subtitle
	content.ButtonText1 = input.ButtonText1
	content.ButtonURL1 = input.ButtonURL1
	content.ButtonText2 = input.ButtonText2
	content.ButtonURL2 = input.ButtonURL2
	content.Date = input.Date
	content.Link = input.Link
	content.Published = publishedDefault
	if input.Published != nil {
		content.Published = *input.Published
	}
}

func mapContentErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrContentNotFound
	}
	return err
}
