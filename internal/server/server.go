package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/scene"
	"whiteboard-backend/internal/service"
)

// Server Fiber 서버 래퍼
type Server struct {
	app               *fiber.App
	cfg               *config.Config
	db                *gorm.DB
	scenes            *scene.Store
	authService       service.AuthService
	authHandler       *handler.AuthHandler
	whiteboardHandler *handler.WhiteboardHandler
	userHandler       *handler.UserHandler
	healthHandler     *handler.HealthHandler
	jwtManager        *auth.JWTManager
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB, scenes *scene.Store) *Server {
	app := fiber.New(fiber.Config{
		AppName:       "Whiteboard API",
		ServerHeader:  "Fiber",
		StrictRouting: false,
		CaseSensitive: true,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		BodyLimit:     10 * 1024 * 1024, // 10MB - 씬 데이터가 클 수 있음
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	authService := service.NewAuthService(db, jwtManager)
	whiteboardService := service.NewWhiteboardService(db, scenes)

	return &Server{
		app:               app,
		cfg:               cfg,
		db:                db,
		scenes:            scenes,
		authService:       authService,
		authHandler:       handler.NewAuthHandler(authService),
		whiteboardHandler: handler.NewWhiteboardHandler(whiteboardService),
		userHandler:       handler.NewUserHandler(),
		healthHandler:     handler.NewHealthHandler(db, scenes),
		jwtManager:        jwtManager,
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (인증 엔드포인트용 - Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	requireAuth := auth.Middleware(s.jwtManager, s.authService)
	optionalAuth := auth.OptionalMiddleware(s.jwtManager, s.authService)

	// Auth 라우트 그룹
	authGroup := s.app.Group("/api/auth")
	authGroup.Post("/register", authLimiter, s.authHandler.Register)
	authGroup.Post("/login", authLimiter, s.authHandler.Login)
	authGroup.Get("/me", requireAuth, s.authHandler.GetMe)

	// Whiteboard 라우트 그룹
	whiteboardGroup := s.app.Group("/api/whiteboards")
	whiteboardGroup.Get("/", requireAuth, s.whiteboardHandler.List)
	whiteboardGroup.Post("/", requireAuth, s.whiteboardHandler.Create)
	whiteboardGroup.Get("/:id", optionalAuth, s.whiteboardHandler.Get)
	whiteboardGroup.Put("/:id", requireAuth, s.whiteboardHandler.UpdateMetadata)
	whiteboardGroup.Put("/:id/scene", requireAuth, s.whiteboardHandler.UpdateScene)
	whiteboardGroup.Delete("/:id", requireAuth, s.whiteboardHandler.Delete)

	// User 라우트 그룹 (아직 미구현 - placeholder 응답)
	userGroup := s.app.Group("/api/users")
	userGroup.Get("/profile", s.userHandler.Placeholder)
	userGroup.Put("/profile", s.userHandler.Placeholder)
	userGroup.Get("/settings", s.userHandler.Placeholder)
	userGroup.Put("/settings", s.userHandler.Placeholder)
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		// 진행 중인 요청이 모두 끝난 뒤 저장소 연결 정리
		if err := database.Close(s.db); err != nil {
			log.Printf("⚠️ Error closing PostgreSQL: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.scenes.Close(ctx); err != nil {
			log.Printf("⚠️ Error closing MongoDB: %v", err)
		}
	}()

	log.Printf("🚀 Whiteboard API starting on %s", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
