package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/programalilian/backend/internal/service"
	"github.com/shopspring/decimal"
)

// donationRequest 同时支持表单、查询参数与 JSON。
type donationRequest struct {
	DonorName     *string `form:"donorName" json:"donorName"`
	Email         *string `form:"email" json:"email"`
	Amount        string  `form:"amount" json:"amount"`
	TransactionID string  `form:"transactionId" json:"transactionId"`
}

// CreateDonation 记录一笔单次捐款。
func (a *API) CreateDonation(c *gin.Context) {
	var req donationRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, a.message(c, msgInvalidBody))
		return
	}

	input := service.OneTimeDonationInput{
		DonorName:     req.DonorName,
		Email:         req.Email,
		TransactionID: req.TransactionID,
	}
	if raw := strings.TrimSpace(req.Amount); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, a.message(c, msgInvalidAmount))
			return
		}
		input.Amount = &amount
	}

	donation, err := a.donations.RecordOneTime(c.Request.Context(), input)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, donation)
}

// PaymentWebhook 接收支付平台回调，仅信任 status 字段。
func (a *API) PaymentWebhook(c *gin.Context) {
	transactionID := strings.TrimSpace(c.Param("transactionId"))
	status := c.Query("status")

	if !a.donations.ValidatePayment(transactionID, status) {
		respondError(c, http.StatusBadRequest, a.message(c, msgInvalidPayment))
		return
	}

	donation, err := a.donations.ConfirmPayment(c.Request.Context(), transactionID, status)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       a.message(c, msgPaymentValidated),
		"transactionId": transactionID,
		"confirmed":     donation != nil,
	})
}

// DonationStats 返回捐款总额与各类型笔数，可选 from/to 过滤创建时间。
func (a *API) DonationStats(c *gin.Context) {
	from, ok := a.parseTimeQuery(c, "from", false)
	if !ok {
		return
	}
	to, ok := a.parseTimeQuery(c, "to", true)
	if !ok {
		return
	}

	summary, err := a.stats.DonationSummary(c.Request.Context(), from, to)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// parseTimeQuery 接受 RFC3339 或 YYYY-MM-DD。日期形式的上界取当天结束时刻。
func (a *API) parseTimeQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		utc := parsed.UTC()
		return &utc, true
	}
	parsed, err := time.Parse(birthDateLayout, raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, a.message(c, msgInvalidDate))
		return nil, false
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, true
}
