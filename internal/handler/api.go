package handler

import (
	"github.com/programalilian/backend/internal/imaging"
	"github.com/programalilian/backend/internal/logger"
	"github.com/programalilian/backend/internal/service"
	"github.com/programalilian/backend/internal/store"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	members      *service.MemberService
	donations    *service.DonationService
	contents     *service.ContentService
	stats        *service.StatsService
	log          *logger.Logger
	authDisabled bool
	imageLimit   int64
}

// Options 描述构造 API 时可调整的依赖。
type Options struct {
	Images            imaging.Options
	AdminAuthDisabled bool
	Logger            *logger.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	st := store.NewGormStore(gdb)
	ingestor := imaging.New(opts.Images)

	return &API{
		db:           gdb,
		members:      service.NewMemberService(st, log),
		donations:    service.NewDonationService(st, log),
		contents:     service.NewContentService(st, ingestor, log),
		stats:        service.NewStatsService(st),
		log:          log,
		authDisabled: opts.AdminAuthDisabled,
		imageLimit:   ingestor.Options().MaxBytes,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
