package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ScenePinger 씬 저장소 연결 확인
type ScenePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	db     *gorm.DB
	scenes ScenePinger
}

// NewHealthHandler HealthHandler 생성
func NewHealthHandler(db *gorm.DB, scenes ScenePinger) *HealthHandler {
	return &HealthHandler{db: db, scenes: scenes}
}

// ComponentCheck 컴포넌트 상태
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Checks    map[string]ComponentCheck `json:"checks"`
}

// Check 전체 상태 확인 (PostgreSQL + MongoDB)
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentCheck),
	}

	// 1. PostgreSQL 체크
	dbStart := time.Now()
	sqlDB, err := h.db.DB()
	if err != nil {
		response.Status = "unhealthy"
		response.Checks["postgres"] = ComponentCheck{
			Status: "unhealthy",
			Error:  "failed to get database connection",
		}
	} else if err := sqlDB.Ping(); err != nil {
		response.Status = "unhealthy"
		response.Checks["postgres"] = ComponentCheck{
			Status: "unhealthy",
			Error:  "database ping failed",
		}
	} else {
		response.Checks["postgres"] = ComponentCheck{
			Status:  "ok",
			Latency: time.Since(dbStart).String(),
		}
	}

	// 2. MongoDB 체크
	// Reads degrade gracefully without the scene store, so a mongo failure
	// marks the component degraded but keeps the overall status ok.
	mongoStart := time.Now()
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.scenes.Ping(ctx); err != nil {
		response.Checks["mongo"] = ComponentCheck{
			Status: "degraded",
			Error:  "scene store unreachable",
		}
	} else {
		response.Checks["mongo"] = ComponentCheck{
			Status:  "ok",
			Latency: time.Since(mongoStart).String(),
		}
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

// Liveness K8s liveness probe용 (단순 체크)
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness K8s readiness probe용 (DB 연결 체크)
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	if err := sqlDB.Ping(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	return c.SendString("READY")
}
