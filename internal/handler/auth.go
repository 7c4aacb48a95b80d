package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/service"
)

// AuthHandler 인증 핸들러
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler AuthHandler 생성
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest 회원가입 요청
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest 로그인 요청
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse 사용자 응답
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Register 회원가입
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if details := validateStruct(req); details != nil {
		return validationFailed(c, details)
	}

	user, token, err := h.authService.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "User with this email already exists",
			})
		}
		log.Printf("[Auth] Registration failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Registration failed",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  toUserResponse(user),
		"token": token,
	})
}

// Login 로그인
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if details := validateStruct(req); details != nil {
		return validationFailed(c, details)
	}

	user, token, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// 계정 존재 여부가 드러나지 않도록 항상 동일한 응답
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid email or password",
			})
		}
		log.Printf("[Auth] Login failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed",
		})
	}

	return c.JSON(fiber.Map{
		"user":  toUserResponse(user),
		"token": token,
	})
}

// GetMe 현재 사용자 조회
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*model.User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid token",
		})
	}

	return c.JSON(fiber.Map{
		"user": toUserResponse(user),
	})
}
