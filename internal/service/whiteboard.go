package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// SceneStore 씬 문서 저장소 인터페이스 (*scene.Store가 구현)
type SceneStore interface {
	Insert(ctx context.Context, sceneID string, data any) error
	Upsert(ctx context.Context, sceneID string, data any) error
	Get(ctx context.Context, sceneID string) (any, error)
	Delete(ctx context.Context, sceneID string) error
}

// WhiteboardService 화이트보드 서비스 인터페이스
//
// Orchestrates the relational metadata store and the scene document store.
// The two stores are never written transactionally: each write commits on its
// own and the documented ordering plus best-effort cleanup is the whole
// consistency story.
type WhiteboardService interface {
	Create(ctx context.Context, title string, ownerID int64, sceneData any, isPublic bool) (*model.Whiteboard, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Whiteboard, error)
	GetByID(ctx context.Context, id int64, includeScene bool) (*model.Whiteboard, any, error)
	UpdateScene(ctx context.Context, sceneID string, sceneData any) error
	UpdateMetadata(ctx context.Context, id int64, title *string, isPublic *bool) (*model.Whiteboard, error)
	Delete(ctx context.Context, id, ownerID int64) (bool, error)
	CheckAccess(ctx context.Context, id, userID int64) (bool, error)
}

var _ WhiteboardService = (*whiteboardService)(nil)

type whiteboardService struct {
	db     *gorm.DB
	scenes SceneStore
}

// NewWhiteboardService WhiteboardService 생성
func NewWhiteboardService(db *gorm.DB, scenes SceneStore) WhiteboardService {
	return &whiteboardService{db: db, scenes: scenes}
}

// newSceneID 씬 식별자 생성
//
// Keeps the original scene_<millis>_<suffix> shape but draws the suffix from
// a UUID instead of a short random string, so collisions are no longer a
// practical concern.
func newSceneID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("scene_%d_%s", time.Now().UnixMilli(), suffix)
}

// Create 화이트보드 생성
//
// When initial scene data is supplied the scene document is written first and
// the metadata row afterwards, referencing the generated scene_id
// unconditionally. If the row insert fails after a successful scene write the
// orphan document is deliberately left in place: it is unreferenced and
// harmless, and scene writes are never rolled back.
func (s *whiteboardService) Create(ctx context.Context, title string, ownerID int64, sceneData any, isPublic bool) (*model.Whiteboard, error) {
	sceneID := newSceneID()

	if sceneData != nil {
		if err := s.scenes.Insert(ctx, sceneID, sceneData); err != nil {
			return nil, err
		}
	}

	wb := &model.Whiteboard{
		Title:    title,
		SceneID:  sceneID,
		OwnerID:  ownerID,
		IsPublic: isPublic,
	}

	if err := s.db.WithContext(ctx).Create(wb).Error; err != nil {
		return nil, fmt.Errorf("failed to create whiteboard: %w", err)
	}

	return wb, nil
}

// ListByOwner 소유자의 화이트보드 목록 조회 (최근 수정 순)
func (s *whiteboardService) ListByOwner(ctx context.Context, ownerID int64) ([]model.Whiteboard, error) {
	var whiteboards []model.Whiteboard
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&whiteboards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list whiteboards: %w", err)
	}
	return whiteboards, nil
}

// GetByID 화이트보드 조회
//
// With includeScene the scene fetch is best-effort: a scene store failure is
// logged and the metadata-only record is returned instead of the error.
func (s *whiteboardService) GetByID(ctx context.Context, id int64, includeScene bool) (*model.Whiteboard, any, error) {
	var wb model.Whiteboard
	err := s.db.WithContext(ctx).First(&wb, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch whiteboard %d: %w", id, err)
	}

	if !includeScene {
		return &wb, nil, nil
	}

	sceneData, err := s.scenes.Get(ctx, wb.SceneID)
	if err != nil {
		log.Printf("[Whiteboard] Failed to fetch scene %s: %v", wb.SceneID, err)
		return &wb, nil, nil
	}

	return &wb, sceneData, nil
}

// UpdateScene 씬 데이터 갱신
//
// Upserts the document (a board created without content gets its scene here)
// and separately touches the row's updated_at. The two writes are
// independent; no atomicity between them is guaranteed or required.
func (s *whiteboardService) UpdateScene(ctx context.Context, sceneID string, sceneData any) error {
	if err := s.scenes.Upsert(ctx, sceneID, sceneData); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Model(&model.Whiteboard{}).
		Where("scene_id = ?", sceneID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to touch whiteboard for scene %s: %w", sceneID, err)
	}

	return nil
}

// UpdateMetadata 메타데이터 부분 갱신 (전달된 필드만 변경)
func (s *whiteboardService) UpdateMetadata(ctx context.Context, id int64, title *string, isPublic *bool) (*model.Whiteboard, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if title != nil {
		updates["title"] = *title
	}
	if isPublic != nil {
		updates["is_public"] = *isPublic
	}

	result := s.db.WithContext(ctx).
		Model(&model.Whiteboard{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update whiteboard %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var wb model.Whiteboard
	if err := s.db.WithContext(ctx).First(&wb, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload whiteboard %d: %w", id, err)
	}
	return &wb, nil
}

// Delete 화이트보드 삭제
//
// Ownership is enforced in the SQL itself: the row must match both id and
// owner_id. The metadata row goes first; the scene document delete afterwards
// is best-effort and a failure there is logged, not propagated - the board is
// already gone from the caller's point of view.
func (s *whiteboardService) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	var wb model.Whiteboard
	err := s.db.WithContext(ctx).
		Select("scene_id").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&wb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch whiteboard %d: %w", id, err)
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Whiteboard{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete whiteboard %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	if err := s.scenes.Delete(ctx, wb.SceneID); err != nil {
		log.Printf("[Whiteboard] Failed to delete scene %s: %v", wb.SceneID, err)
	}

	return true, nil
}

// CheckAccess 접근 권한 확인 (소유자이거나 공개 보드인 경우만 허용)
func (s *whiteboardService) CheckAccess(ctx context.Context, id, userID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Whiteboard{}).
		Where("id = ? AND (owner_id = ? OR is_public = ?)", id, userID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check access for whiteboard %d: %w", id, err)
	}
	return count > 0, nil
}
