package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/programalilian/backend/internal/locale"
	"github.com/programalilian/backend/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseIDParam 解析路径中的 id，失败时直接写回 400。
func (a *API) parseIDParam(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, a.message(c, msgInvalidID))
		return 0, false
	}
	return id, true
}

// respondServiceError 将服务层错误映射为 HTTP 状态码与本地化提示。
func (a *API) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": a.message(c, msgInvalidInput), "detail": err.Error()})
	case errors.Is(err, service.ErrImageTooLarge):
		respondError(c, http.StatusBadRequest, a.message(c, msgImageTooLarge))
	case errors.Is(err, service.ErrUnprocessableImage):
		respondError(c, http.StatusBadRequest, a.message(c, msgUnprocessableImage))
	case errors.Is(err, service.ErrDuplicateEmail):
		respondError(c, http.StatusConflict, a.message(c, msgDuplicateEmail))
	case errors.Is(err, service.ErrDuplicateTransaction):
		respondError(c, http.StatusConflict, a.message(c, msgDuplicateTransaction))
	case errors.Is(err, service.ErrMemberNotFound):
		respondError(c, http.StatusNotFound, a.message(c, msgMemberNotFound))
	case errors.Is(err, service.ErrDonationNotFound):
		respondError(c, http.StatusNotFound, a.message(c, msgDonationNotFound))
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, a.message(c, msgContentNotFound))
	default:
		a.log.Error("request failed", "path", c.FullPath(), "requestId", c.GetString(requestIDContextKey), "error", err)
		respondError(c, http.StatusInternalServerError, a.message(c, msgInternal))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound)
}

type messageKey int

const (
	msgInvalidID messageKey = iota
	msgInvalidInput
	msgInvalidBody
	msgInvalidAmount
	msgInvalidDate
	msgImageTooLarge
	msgUnprocessableImage
	msgImageRequired
	msgDuplicateEmail
	msgDuplicateTransaction
	msgMemberNotFound
	msgDonationNotFound
	msgContentNotFound
	msgInvalidPayment
	msgPaymentValidated
	msgSubscriptionUpdated
	msgBadCredentials
	msgUnauthorized
	msgSessionSaveFailed
	msgInternal
)

// messages 保存每条提示的英文与西班牙语文本。
var messages = map[messageKey][2]string{
	msgInvalidID:            {"Invalid id", "ID inválido"},
	msgInvalidInput:         {"Invalid input", "Datos inválidos"},
	msgInvalidBody:          {"Invalid request body", "Cuerpo de la solicitud inválido"},
	msgInvalidAmount:        {"Invalid amount", "Monto inválido"},
	msgInvalidDate:          {"Invalid date, expected YYYY-MM-DD", "Fecha inválida, se espera AAAA-MM-DD"},
	msgImageTooLarge:        {"Image exceeds the size limit", "La imagen supera el tamaño máximo permitido"},
	msgUnprocessableImage:   {"Could not process the image", "Error al procesar la imagen"},
	msgImageRequired:        {"Image file is required", "Se requiere un archivo de imagen"},
	msgDuplicateEmail:       {"Email already registered", "El email ya está registrado"},
	msgDuplicateTransaction: {"Transaction already recorded", "La transacción ya fue registrada"},
	msgMemberNotFound:       {"Member not found", "Socio no encontrado"},
	msgDonationNotFound:     {"Donation not found", "Donación no encontrada"},
	msgContentNotFound:      {"Content not found", "Contenido no encontrado"},
	msgInvalidPayment:       {"Invalid payment data", "Datos de pago inválidos"},
	msgPaymentValidated:     {"Payment validated successfully", "Pago validado correctamente"},
	msgSubscriptionUpdated:  {"Subscription updated successfully", "Suscripción actualizada correctamente"},
	msgBadCredentials:       {"Invalid username or password", "Usuario o contraseña incorrectos"},
	msgUnauthorized:         {"Authentication required", "Se requiere autenticación"},
	msgSessionSaveFailed:    {"Failed to save session", "No se pudo guardar la sesión"},
	msgInternal:             {"Internal server error", "Error interno del servidor"},
}

func (a *API) message(c *gin.Context, key messageKey) string {
	text := messages[key]
	return locale.Pick(a.requestLocale(c).Language, text[0], text[1])
}
