package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/model"
)

// UserLoader 토큰 검증 시 현재 사용자 레코드 조회
//
// Verification always goes back to the database: a token for a user that no
// longer exists is treated as invalid.
type UserLoader interface {
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Middleware JWT 인증 미들웨어
func Middleware(jwtManager *JWTManager, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "access token required",
			})
		}

		// 토큰 검증
		claims, err := jwtManager.Validate(token)
		if err != nil {
			if err == ErrExpiredToken {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "token expired",
					"code":  "TOKEN_EXPIRED",
				})
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		// 현재 사용자 조회 (탈퇴한 사용자의 토큰은 무효)
		user, err := users.FindUserByID(c.UserContext(), claims.UserID)
		if err != nil || user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		// 사용자 정보를 컨텍스트에 저장
		c.Locals("userID", user.ID)
		c.Locals("user", user)

		return c.Next()
	}
}

// OptionalMiddleware 선택적 인증 미들웨어 (인증 실패해도 계속 진행)
func OptionalMiddleware(jwtManager *JWTManager, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}

		claims, err := jwtManager.Validate(token)
		if err != nil {
			return c.Next()
		}

		if user, err := users.FindUserByID(c.UserContext(), claims.UserID); err == nil && user != nil {
			c.Locals("userID", user.ID)
			c.Locals("user", user)
		}

		return c.Next()
	}
}

// CurrentUserID 컨텍스트에서 사용자 ID 조회 (미인증이면 0)
func CurrentUserID(c *fiber.Ctx) int64 {
	if val := c.Locals("userID"); val != nil {
		if id, ok := val.(int64); ok {
			return id
		}
	}
	return 0
}

// bearerToken Authorization 헤더에서 토큰 추출
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}

	return parts[1], true
}
