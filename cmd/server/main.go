package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/programalilian/backend/internal/config"
	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/handler"
	"github.com/programalilian/backend/internal/imaging"
	"github.com/programalilian/backend/internal/logger"
	"github.com/programalilian/backend/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	// 初始化数据库
	gdb, err := db.Init(db.Options{
		Driver: cfg.DatabaseDriver,
		Path:   cfg.DatabasePath,
		URL:    cfg.DatabaseURL,
	})
	if err != nil {
		appLog.Fatal("failed to initialize database", "driver", cfg.DatabaseDriver, "error", err)
	}

	if created, err := db.EnsureUser(gdb, cfg.AdminUserName, cfg.AdminPassword); err != nil {
		appLog.Fatal("failed to ensure admin user", "error", err)
	} else if created {
		appLog.Info("admin user created", "username", cfg.AdminUserName)
	}
	for _, warning := range startupWarnings(cfg) {
		appLog.Warn(warning)
	}

	api := handler.NewAPI(gdb, handler.Options{
		Images: imaging.Options{
			MaxBytes:  cfg.Image.MaxBytes,
			MaxPixels: cfg.Image.MaxPixels,
			MaxWidth:  cfg.Image.MaxWidth,
			MaxHeight: cfg.Image.MaxHeight,
			Quality:   cfg.Image.Quality,
		},
		AdminAuthDisabled: cfg.AdminAuthDisabled,
		Logger:            appLog,
	})

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		CORSOrigins:   cfg.CORSOrigins,
	})
	appLog.Info("server starting", "addr", cfg.ListenAddr, "driver", cfg.DatabaseDriver)
	if err := r.Run(cfg.ListenAddr); err != nil {
		appLog.Fatal("failed to run server", "error", err)
	}
}

// startupWarnings 列出不适合生产环境的配置。
func startupWarnings(cfg config.AppConfig) []string {
	var warnings []string
	if cfg.AdminAuthDisabled {
		warnings = append(warnings, "admin authentication is disabled")
	}
	if cfg.UsesDefaultSessionSecret() && cfg.GinMode == gin.ReleaseMode {
		warnings = append(warnings, "SESSION_SECRET is not set, admin sessions are signed with the development default")
	}
	return warnings
}
