package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/programalilian/backend/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
)

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Login 处理管理员登录，成功后写入会话
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, a.message(c, msgInvalidBody))
		return
	}

	user, err := db.Authenticate(a.db, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			respondError(c, http.StatusUnauthorized, a.message(c, msgBadCredentials))
			return
		}
		a.respondServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, a.message(c, msgSessionSaveFailed))
		return
	}

	a.log.Info("admin logged in", "username", user.Username)
	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

// Logout 清空会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, a.message(c, msgSessionSaveFailed))
		return
	}
	c.Status(http.StatusNoContent)
}

// AuthRequired 校验后台会话，未登录时返回 401。关闭认证时直接放行。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.authDisabled {
			c.Next()
			return
		}
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			respondError(c, http.StatusUnauthorized, a.message(c, msgUnauthorized))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminStats 返回后台首页统计
func (a *API) AdminStats(c *gin.Context) {
	stats, err := a.stats.Overview(c.Request.Context())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListMembers 返回全部会员；带 plan 参数时按套餐过滤
func (a *API) ListMembers(c *gin.Context) {
	ctx := c.Request.Context()
	if plan := strings.TrimSpace(c.Query("plan")); plan != "" {
		members, err := a.members.ListBySubscriptionPlan(ctx, plan)
		if err != nil {
			a.respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, members)
		return
	}

	members, err := a.members.List(ctx)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// ListRecentMembers 按注册时间倒序返回最近的会员，默认 50 条
func (a *API) ListRecentMembers(c *gin.Context) {
	members, err := a.members.ListRecent(c.Request.Context(), queryLimit(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// ListDonations 返回捐款列表，可用 type 过滤
func (a *API) ListDonations(c *gin.Context) {
	ctx := c.Request.Context()
	if kind := strings.TrimSpace(c.Query("type")); kind != "" {
		donations, err := a.donations.ListByType(ctx, db.DonationType(strings.ToUpper(kind)))
		if err != nil {
			a.respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, donations)
		return
	}

	donations, err := a.donations.List(ctx)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, donations)
}

// DonationHistory 返回某个邮箱最近的捐款记录
func (a *API) DonationHistory(c *gin.Context) {
	donations, err := a.donations.History(c.Request.Context(), c.Query("email"), queryLimit(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, donations)
}

// queryLimit 读取 limit 参数，非法值返回 0 交给服务层使用默认值。
func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
