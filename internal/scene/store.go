package scene

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"whiteboard-backend/internal/config"
)

// Document 씬 문서
//
// The _id is the whiteboard's scene_id used directly as the document key;
// there is no surrogate id. Data is an opaque payload owned by the embedded
// editor and is never validated server-side.
type Document struct {
	ID        string    `bson:"_id"`
	Data      any       `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store 씬 문서 저장소 (MongoDB)
type Store struct {
	client *mongo.Client
	scenes *mongo.Collection
}

// Connect MongoDB 연결 수립
func Connect(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	// Opaque scene payloads decode into bson.M instead of bson.D so they
	// serialize back to JSON objects, not key/value arrays.
	registry := bson.NewRegistry()
	registry.RegisterTypeMapEntry(bson.TypeEmbeddedDocument, reflect.TypeOf(bson.M{}))

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL).SetRegistry(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		client: client,
		scenes: client.Database(cfg.Database).Collection("scenes"),
	}, nil
}

// Insert 새 씬 문서 저장 (초기 콘텐츠가 있는 생성 경로)
func (s *Store) Insert(ctx context.Context, sceneID string, data any) error {
	now := time.Now()
	_, err := s.scenes.InsertOne(ctx, Document{
		ID:        sceneID,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to insert scene %s: %w", sceneID, err)
	}
	return nil
}

// Upsert 씬 문서 갱신 (없으면 생성)
func (s *Store) Upsert(ctx context.Context, sceneID string, data any) error {
	now := time.Now()
	_, err := s.scenes.UpdateOne(ctx,
		bson.M{"_id": sceneID},
		bson.M{
			"$set":         bson.M{"data": data, "updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scene %s: %w", sceneID, err)
	}
	return nil
}

// Get 씬 데이터 조회
//
// A missing document is not an error: a whiteboard created without initial
// content has no scene yet. Returns (nil, nil) in that case.
func (s *Store) Get(ctx context.Context, sceneID string) (any, error) {
	var doc Document
	err := s.scenes.FindOne(ctx, bson.M{"_id": sceneID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch scene %s: %w", sceneID, err)
	}
	return doc.Data, nil
}

// Delete 씬 문서 삭제 (문서가 없어도 성공)
func (s *Store) Delete(ctx context.Context, sceneID string) error {
	if _, err := s.scenes.DeleteOne(ctx, bson.M{"_id": sceneID}); err != nil {
		return fmt.Errorf("failed to delete scene %s: %w", sceneID, err)
	}
	return nil
}

// Ping 연결 테스트
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close 연결 종료
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
