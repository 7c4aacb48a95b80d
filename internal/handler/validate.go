package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// 에러 메시지에 Go 필드명 대신 json 필드명 사용
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// FieldError 필드 단위 검증 에러
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validateStruct 요청 바디 검증, 실패 시 필드별 에러 목록 반환
func validateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: "invalid request"}}
	}

	var details []FieldError

	for _, fe := range verrs {
		details = append(details, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// validationFailed 400 응답 (검증 실패는 저장소 접근 전에 차단)
func validationFailed(c *fiber.Ctx, details []FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Validation failed",
		"details": details,
	})
}
