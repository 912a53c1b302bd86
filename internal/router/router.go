package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/programalilian/backend/internal/config"
	"github.com/programalilian/backend/internal/handler"
)

// Options 描述路由层所需的会话与跨域配置
type Options struct {
	SessionSecret string
	CORSOrigins   []string
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handler.RequestID())
	r.Use(api.RequestLogger())
	r.Use(corsMiddleware(opts.CORSOrigins))

	// 配置会话中间件
	secret := opts.SessionSecret
	if secret == "" {
		secret = config.DefaultSessionSecret
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((12 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("lilian_session", store))
	r.Use(api.LocaleMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		members := apiGroup.Group("/members")
		members.POST("", api.RegisterMember)
		members.GET("/:id", api.GetMember)
		members.PUT("/:id/subscription", api.UpdateSubscription)

		donations := apiGroup.Group("/donations")
		donations.POST("", api.CreateDonation)
		donations.POST("/webhook/:transactionId", api.PaymentWebhook)
		donations.GET("/stats", api.DonationStats)

		content := apiGroup.Group("/content")
		content.GET("/published", api.GetPublishedContent)
		content.GET("/section/:section", api.GetContentBySection)
		content.GET("/single/:section", api.GetSingleContentBySection)
		content.GET("/upcoming", api.GetUpcomingContent)
		content.GET("/image/:id", api.GetContentImage)

		// 后台管理路由
		admin := apiGroup.Group("/admin")
		admin.POST("/login", api.Login)
		admin.POST("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(api.AuthRequired())
		{
			auth.GET("/stats", api.AdminStats)
			auth.GET("/members", api.ListMembers)
			auth.GET("/members/recent", api.ListRecentMembers)
			auth.GET("/donations", api.ListDonations)
			auth.GET("/donations/history", api.DonationHistory)

			auth.GET("/content", api.ListAllContent)
			auth.POST("/content", api.CreateContent)
			auth.POST("/content/with-image", api.CreateContentWithImage)
			auth.POST("/content/upload-image", api.UploadImage)
			auth.GET("/content/:id", api.GetContent)
			auth.PUT("/content/:id", api.UpdateContent)
			auth.DELETE("/content/:id", api.DeleteContent)
		}
	}

	return r
}

// corsMiddleware 未配置来源时允许任意来源，同时保留凭证支持。
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Accept-Language", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Language", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			allowed = nil
			break
		}
		if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			allowed = append(allowed, strings.TrimRight(origin, "/"))
		}
	}
	if len(allowed) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = allowed
	}
	return cors.New(cfg)
}
