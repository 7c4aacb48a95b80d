package handler

import (
	"github.com/gofiber/fiber/v2"
)

// UserHandler 사용자 프로필/설정 핸들러
//
// The profile and settings surface is not implemented yet; every route
// answers with the same placeholder the dashboard expects.
type UserHandler struct{}

// NewUserHandler UserHandler 생성
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Placeholder 미구현 라우트 공통 응답
func (h *UserHandler) Placeholder(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "authentication required",
	})
}
