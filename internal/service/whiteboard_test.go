package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/service"
)

// --- Mock SceneStore --- //

type mockSceneStore struct {
	mock.Mock
}

func (m *mockSceneStore) Insert(ctx context.Context, sceneID string, data any) error {
	args := m.Called(ctx, sceneID, data)
	return args.Error(0)
}

func (m *mockSceneStore) Upsert(ctx context.Context, sceneID string, data any) error {
	args := m.Called(ctx, sceneID, data)
	return args.Error(0)
}

func (m *mockSceneStore) Get(ctx context.Context, sceneID string) (any, error) {
	args := m.Called(ctx, sceneID)
	return args.Get(0), args.Error(1)
}

func (m *mockSceneStore) Delete(ctx context.Context, sceneID string) error {
	args := m.Called(ctx, sceneID)
	return args.Error(0)
}

func newWhiteboardService(t *testing.T) (service.WhiteboardService, sqlmock.Sqlmock, *mockSceneStore) {
	t.Helper()
	db, dbMock := newTestDB(t)
	scenes := new(mockSceneStore)
	return service.NewWhiteboardService(db, scenes), dbMock, scenes
}

func whiteboardColumns() []string {
	return []string{"id", "title", "scene_id", "owner_id", "is_public", "created_at", "updated_at"}
}

// --- Tests --- //

func TestWhiteboardService_Create_WithScene(t *testing.T) {
	svc, dbMock, scenes := newWhiteboardService(t)

	sceneData := map[string]any{"elements": []any{}}

	// 씬 문서가 먼저 쓰이고, 그 다음 메타데이터 행이 쓰임
	scenes.On("Insert", mock.Anything, mock.MatchedBy(func(id string) bool {
		return strings.HasPrefix(id, "scene_")
	}), sceneData).Return(nil).Once()

	dbMock.ExpectQuery(`INSERT INTO "whiteboards"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	wb, err := svc.Create(context.Background(), "Plan", 1, sceneData, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), wb.ID)
	assert.Equal(t, "Plan", wb.Title)
	assert.False(t, wb.IsPublic)
	assert.True(t, strings.HasPrefix(wb.SceneID, "scene_"))

	scenes.AssertExpectations(t)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestWhiteboardService_Create_WithoutScene(t *testing.T) {
	svc, dbMock, scenes := newWhiteboardService(t)

	dbMock.ExpectQuery(`INSERT INTO "whiteboards"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	wb, err := svc.Create(context.Background(), "Empty", 1, nil, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), wb.ID)
	assert.True(t, wb.IsPublic)

	// 초기 콘텐츠가 없으면 씬 저장소를 건드리지 않음
	scenes.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestWhiteboardService_Create_SceneWriteFails(t *testing.T) {
	svc, _, scenes := newWhiteboardService(t)

	scenes.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("mongo down")).Once()

	// 씬 쓰기가 실패하면 메타데이터 행은 쓰이지 않음 (sqlmock에 기대 없음)
	_, err := svc.Create(context.Background(), "Plan", 1, map[string]any{"a": 1}, false)
	assert.Error(t, err)
}

func TestWhiteboardService_SceneIDsUnique(t *testing.T) {
	svc, dbMock, scenes := newWhiteboardService(t)

	seen := make(map[string]bool)
	scenes.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	for i := 0; i < 50; i++ {
		dbMock.ExpectQuery(`INSERT INTO "whiteboards"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(i + 1)))

		wb, err := svc.Create(context.Background(), "b", 1, map[string]any{}, false)
		require.NoError(t, err)
		assert.False(t, seen[wb.SceneID], "duplicate scene_id %s", wb.SceneID)
		seen[wb.SceneID] = true
	}
}

func TestWhiteboardService_ListByOwner(t *testing.T) {
	svc, dbMock, _ := newWhiteboardService(t)

	now := time.Now()
	dbMock.ExpectQuery(`SELECT \* FROM "whiteboards" WHERE owner_id = .* ORDER BY updated_at DESC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(whiteboardColumns()).
			AddRow(2, "Newer", "scene_b", 1, false, now, now).
			AddRow(1, "Older", "scene_a", 1, true, now.Add(-time.Hour), now.Add(-time.Hour)))

	boards, err := svc.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "Newer", boards[0].Title)
	assert.Equal(t, "Older", boards[1].Title)
}

func TestWhiteboardService_GetByID_WithScene(t *testing.T) {
	svc, dbMock, scenes := newWhiteboardService(t)

	now := time.Now()
	dbMock.ExpectQuery(`SELECT \* FROM "whiteboards" WHERE "whiteboards"."id" =`).
		WillReturnRows(sqlmock.NewRows(whiteboardColumns()).
			AddRow(1, "Plan", "scene_x", 1, false, now, now))

	sceneData := map[string]any{"elements": []any{"rect"}}
	scenes.On("Get", mock.Anything, "scene_x").Return(sceneData, nil).Once()

	wb, data, err := svc.GetByID(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, "scene_x", wb.SceneID)
	assert.Equal(t, sceneData, data)
}

func TestWhiteboardService_GetByID_SceneFetchDegrades(t *testing.T) {
	// 씬 저장소 장애 시에도 메타데이터는 반환됨
	svc, dbMock, scenes := newWhiteboardService(t)

	now := time.Now()
	dbMock.ExpectQuery(`SELECT \* FROM "whiteboards" WHERE "whiteboards"."id" =`).
		WillReturnRows(sqlmock.NewRows(whiteboardColumns()).
			AddRow(1, "Plan", "scene_x", 1, false, now, now))

	scenes.On("Get", mock.Anything, "scene_x").
		Return(nil, errors.New("mongo down")).Once()

	wb, data, err := svc.GetByID(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), wb.ID)
	assert.Nil(t, data)
}

func TestWhiteboardService_GetByID_NotFound(t *testing.T) {
	svc, dbMock, _ := newWhiteboardService(t)

	dbMock.ExpectQuery(`SELECT \* FROM "whiteboards" WHERE "whiteboards"."id" =`).
		WillReturnRows(sqlmock.NewRows(whiteboardColumns()))

	_, _, err := svc.GetByID(context.Background(), 99, false)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestWhiteboardService_UpdateScene(t *testing.T) {
	svc, dbMock, scenes := newWhiteboardService(t)

	sceneData := map[string]any{"elements": []any{"circle"}}
	scenes.On("Upsert", mock.Anything, "scene_x", sceneData).Return(nil).Once()

	// 씬 업서트 후 행의 updated_at 갱신 (두 쓰기는 독립적)
	dbMock.ExpectExec(`UPDATE "whiteboards" SET "updated_at"=.* WHERE scene_id =`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.UpdateScene(context.Background(), "scene_x", sceneData)
	require.NoError(t, err)

	scenes.AssertExpectations(t)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestWhiteboardService_UpdateMetadata_Partial(t *testing.T) {
	svc, dbMock, _ := newWhiteboardService(t)

	title := "Renamed"
	now := time.Now()

	dbMock.ExpectExec(`UPDATE "whiteboards" SET .* WHERE id =`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectQuery(`SELECT \* FROM "whiteboards" WHERE "whiteboards"."id" =`).
		WillReturnRows(sqlmock.NewRows(whiteboardColumns()).
			AddRow(1, "Renamed", "scene_x", 1, false, now, now))

	wb, err := svc.UpdateMetadata(context.Background(), 1, &title, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", wb.Title)
	assert.False(t, wb.IsPublic)
}

func TestWhiteboardService_UpdateMetadata_NotFound(t *testing.T) {
	svc, dbMock, _ := newWhiteboardService(t)

	title := "Renamed"
	dbMock.ExpectExec(`UPDATE "whiteboards" SET .* WHERE id =`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.UpdateMetadata(context.Background(), 99, &title, nil)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestWhiteboardService_Delete_Owner(t *testing.T) {
	svc, dbMock, scenes := newWhiteboardService(t)

	dbMock.ExpectQuery(`SELECT "scene_id" FROM "whiteboards" WHERE id = .* AND owner_id =`).
		WithArgs(int64(1), int64(1), 1).
		WillReturnRows(sqlmock.NewRows([]string{"scene_id"}).AddRow("scene_x"))
	dbMock.ExpectExec(`DELETE FROM "whiteboards" WHERE id = .* AND owner_id =`).
		WithArgs(int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scenes.On("Delete", mock.Anything, "scene_x").Return(nil).Once()

	deleted, err := svc.Delete(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	scenes.AssertExpectations(t)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestWhiteboardService_Delete_NonOwner(t *testing.T) {
	svc, dbMock, scenes := newWhiteboardService(t)

	// 소유자가 아니면 행이 매칭되지 않음
	dbMock.ExpectQuery(`SELECT "scene_id" FROM "whiteboards" WHERE id = .* AND owner_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"scene_id"}))

	deleted, err := svc.Delete(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, deleted)

	// 씬 문서도 그대로 남음
	scenes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestWhiteboardService_Delete_SceneDeleteFailureIgnored(t *testing.T) {
	// 씬 삭제 실패는 로그만 남기고 작업은 성공으로 처리
	svc, dbMock, scenes := newWhiteboardService(t)

	dbMock.ExpectQuery(`SELECT "scene_id" FROM "whiteboards" WHERE id = .* AND owner_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"scene_id"}).AddRow("scene_x"))
	dbMock.ExpectExec(`DELETE FROM "whiteboards" WHERE id = .* AND owner_id =`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	scenes.On("Delete", mock.Anything, "scene_x").
		Return(errors.New("mongo down")).Once()

	deleted, err := svc.Delete(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestWhiteboardService_CheckAccess(t *testing.T) {
	tests := []struct {
		name     string
		count    int64
		expected bool
	}{
		{"owner or public", 1, true},
		{"stranger on private board", 0, false},
		{"nonexistent board", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, dbMock, _ := newWhiteboardService(t)

			dbMock.ExpectQuery(`SELECT count\(\*\) FROM "whiteboards" WHERE id = .* AND \(owner_id = .* OR is_public = .*\)`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			ok, err := svc.CheckAccess(context.Background(), 1, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}
