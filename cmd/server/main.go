package main

import (
	"context"
	"log"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/scene"
	"whiteboard-backend/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// PostgreSQL 연결 (메타데이터 저장소)
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}

	if err := database.Ping(db); err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}
	log.Printf("✅ PostgreSQL connected successfully")

	// MongoDB 연결 (씬 문서 저장소)
	scenes, err := scene.Connect(context.Background(), &cfg.Mongo)
	if err != nil {
		log.Fatalf("❌ MongoDB connection failed: %v", err)
	}
	log.Printf("✅ MongoDB connected successfully")

	// 서버 생성 및 설정
	srv := server.New(cfg, db, scenes)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
