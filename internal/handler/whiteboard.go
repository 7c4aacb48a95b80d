package handler

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/service"
)

// WhiteboardHandler 화이트보드 핸들러
type WhiteboardHandler struct {
	whiteboards service.WhiteboardService
}

// NewWhiteboardHandler WhiteboardHandler 생성
func NewWhiteboardHandler(whiteboards service.WhiteboardService) *WhiteboardHandler {
	return &WhiteboardHandler{whiteboards: whiteboards}
}

// CreateWhiteboardRequest 생성 요청
type CreateWhiteboardRequest struct {
	Title     string `json:"title" validate:"required,min=1"`
	SceneData any    `json:"scene_data"`
	IsPublic  bool   `json:"is_public"`
}

// UpdateWhiteboardRequest 메타데이터 수정 요청 (전달된 필드만 변경)
type UpdateWhiteboardRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1"`
	IsPublic *bool   `json:"is_public"`
}

// UpdateSceneRequest 씬 데이터 수정 요청
type UpdateSceneRequest struct {
	SceneData any `json:"scene_data"`
}

// WhiteboardResponse 화이트보드 응답
type WhiteboardResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	SceneID   string    `json:"scene_id"`
	OwnerID   int64     `json:"owner_id"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WhiteboardWithSceneResponse 씬 데이터를 포함한 화이트보드 응답
type WhiteboardWithSceneResponse struct {
	WhiteboardResponse
	SceneData any `json:"scene_data"`
}

func toWhiteboardResponse(wb *model.Whiteboard) WhiteboardResponse {
	return WhiteboardResponse{
		ID:        wb.ID,
		Title:     wb.Title,
		SceneID:   wb.SceneID,
		OwnerID:   wb.OwnerID,
		IsPublic:  wb.IsPublic,
		CreatedAt: wb.CreatedAt,
		UpdatedAt: wb.UpdatedAt,
	}
}

// List 내 화이트보드 목록 조회
func (h *WhiteboardHandler) List(c *fiber.Ctx) error {
	userID := auth.CurrentUserID(c)

	whiteboards, err := h.whiteboards.ListByOwner(c.UserContext(), userID)
	if err != nil {
		log.Printf("[Whiteboard] Failed to list whiteboards for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch whiteboards",
		})
	}

	responses := make([]WhiteboardResponse, 0, len(whiteboards))
	for i := range whiteboards {
		responses = append(responses, toWhiteboardResponse(&whiteboards[i]))
	}

	return c.JSON(fiber.Map{
		"whiteboards": responses,
	})
}

// Get 화이트보드 단건 조회 (씬 데이터 포함)
//
// Optional auth: anonymous callers may only read public boards, authenticated
// callers go through the owner-or-public access check.
func (h *WhiteboardHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid whiteboard ID",
		})
	}

	// 존재하지 않는 보드는 404, 존재하지만 권한이 없으면 403
	existing, _, err := h.whiteboards.GetByID(c.UserContext(), int64(id), false)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Whiteboard not found",
			})
		}
		log.Printf("[Whiteboard] Failed to fetch whiteboard %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch whiteboard",
		})
	}

	userID := auth.CurrentUserID(c)
	if userID != 0 {
		hasAccess, err := h.whiteboards.CheckAccess(c.UserContext(), int64(id), userID)
		if err != nil {
			log.Printf("[Whiteboard] Access check failed for whiteboard %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch whiteboard",
			})
		}
		if !hasAccess {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied",
			})
		}
	} else if !existing.IsPublic {
		// 미인증 사용자는 공개 보드만 접근 가능
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	}

	wb, sceneData, err := h.whiteboards.GetByID(c.UserContext(), int64(id), true)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Whiteboard not found",
			})
		}
		log.Printf("[Whiteboard] Failed to fetch whiteboard %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch whiteboard",
		})
	}

	return c.JSON(WhiteboardWithSceneResponse{
		WhiteboardResponse: toWhiteboardResponse(wb),
		SceneData:          sceneData,
	})
}

// Create 화이트보드 생성
func (h *WhiteboardHandler) Create(c *fiber.Ctx) error {
	var req CreateWhiteboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if details := validateStruct(req); details != nil {
		return validationFailed(c, details)
	}

	userID := auth.CurrentUserID(c)

	wb, err := h.whiteboards.Create(c.UserContext(), req.Title, userID, req.SceneData, req.IsPublic)
	if err != nil {
		log.Printf("[Whiteboard] Failed to create whiteboard for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create whiteboard",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toWhiteboardResponse(wb))
}

// UpdateMetadata 메타데이터 수정 (소유자만)
func (h *WhiteboardHandler) UpdateMetadata(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid whiteboard ID",
		})
	}

	var req UpdateWhiteboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if details := validateStruct(req); details != nil {
		return validationFailed(c, details)
	}

	userID := auth.CurrentUserID(c)

	// 소유권 확인 (비소유자에게는 존재 여부를 숨기고 404)
	existing, _, err := h.whiteboards.GetByID(c.UserContext(), int64(id), false)
	if err != nil || existing.OwnerID != userID {
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			log.Printf("[Whiteboard] Failed to fetch whiteboard %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update whiteboard",
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Whiteboard not found",
		})
	}

	wb, err := h.whiteboards.UpdateMetadata(c.UserContext(), int64(id), req.Title, req.IsPublic)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Whiteboard not found",
			})
		}
		log.Printf("[Whiteboard] Failed to update whiteboard %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update whiteboard",
		})
	}

	return c.JSON(toWhiteboardResponse(wb))
}

// UpdateScene 씬 데이터 수정 (소유자만)
func (h *WhiteboardHandler) UpdateScene(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid whiteboard ID",
		})
	}

	var req UpdateSceneRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.SceneData == nil {
		return validationFailed(c, []FieldError{
			{Field: "scene_data", Message: "scene_data is required"},
		})
	}

	userID := auth.CurrentUserID(c)

	wb, _, err := h.whiteboards.GetByID(c.UserContext(), int64(id), false)
	if err != nil || wb.OwnerID != userID {
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			log.Printf("[Whiteboard] Failed to fetch whiteboard %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update scene",
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Whiteboard not found",
		})
	}

	if err := h.whiteboards.UpdateScene(c.UserContext(), wb.SceneID, req.SceneData); err != nil {
		log.Printf("[Whiteboard] Failed to update scene %s: %v", wb.SceneID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update scene",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Scene updated successfully",
	})
}

// Delete 화이트보드 삭제 (소유자만)
func (h *WhiteboardHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid whiteboard ID",
		})
	}

	userID := auth.CurrentUserID(c)

	deleted, err := h.whiteboards.Delete(c.UserContext(), int64(id), userID)
	if err != nil {
		log.Printf("[Whiteboard] Failed to delete whiteboard %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete whiteboard",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Whiteboard not found",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
