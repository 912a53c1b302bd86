package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/programalilian/backend/internal/service"
)

const birthDateLayout = "2006-01-02"

type registerMemberRequest struct {
	FullName  string  `json:"fullName"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birthDate"`
}

// RegisterMember 注册新会员，邮箱重复时返回 409。
func (a *API) RegisterMember(c *gin.Context) {
	var req registerMemberRequest
	if !bindJSON(c, &req, a.message(c, msgInvalidBody)) {
		return
	}

	input := service.RegisterMemberInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	if req.BirthDate != nil && strings.TrimSpace(*req.BirthDate) != "" {
		parsed, err := time.Parse(birthDateLayout, strings.TrimSpace(*req.BirthDate))
		if err != nil {
			respondError(c, http.StatusBadRequest, a.message(c, msgInvalidDate))
			return
		}
		input.BirthDate = &parsed
	}

	member, err := a.members.Register(c.Request.Context(), input)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// GetMember 按 ID 查询会员。
func (a *API) GetMember(c *gin.Context) {
	id, ok := a.parseIDParam(c)
	if !ok {
		return
	}

	member, err := a.members.FindByID(c.Request.Context(), id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// UpdateSubscription 在支付平台创建订阅后回写订阅 ID 与套餐。
func (a *API) UpdateSubscription(c *gin.Context) {
	id, ok := a.parseIDParam(c)
	if !ok {
		return
	}

	var planType *string
	if plan, exists := c.GetQuery("planType"); exists {
		planType = &plan
	}

	member, err := a.members.AttachSubscription(c.Request.Context(), id, c.Query("subscriptionId"), planType)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": a.message(c, msgSubscriptionUpdated),
		"member":  member,
	})
}
