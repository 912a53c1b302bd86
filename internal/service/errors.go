package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/programalilian/backend/internal/imaging"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicateTransaction = errors.New("transaction already recorded")

	ErrMemberNotFound   = fmt.Errorf("member %w", ErrNotFound)
	ErrDonationNotFound = fmt.Errorf("donation %w", ErrNotFound)
	ErrContentNotFound  = fmt.Errorf("content %w", ErrNotFound)

	ErrImageTooLarge      = imaging.ErrTooLarge
	ErrUnprocessableImage = imaging.ErrUnprocessable
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// invalidInput 构造一个包裹 ErrInvalidInput 的错误，附带出错字段。
func invalidInput(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

// validateStruct 执行结构体标签校验，并把 validator 的错误翻译为 ErrInvalidInput。
func validateStruct(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.Field(), rule))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(parts, ", "))
}

// optionalString 去掉首尾空白，空串视为未提供。
func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
