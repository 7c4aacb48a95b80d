package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 애플리케이션 전체 설정
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Auth   AuthConfig
	CORS   CORSConfig
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// MongoConfig 씬 문서 저장소(MongoDB) 설정
type MongoConfig struct {
	URL            string
	Database       string
	ConnectTimeout time.Duration
}

// AuthConfig 인증 설정
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string
}

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	// 필수 환경 변수 검증
	jwtSecret := getRequiredEnv("JWT_SECRET")
	if jwtSecret == "dev-secret" || jwtSecret == "change-this-secret-in-production" {
		log.Fatal("🚨 CRITICAL: JWT_SECRET must be changed from default value in production!")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":3001"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Mongo: MongoConfig{
			URL:            getEnv("MONGODB_URL", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "excalidraw"),
			ConnectTimeout: getDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
			// 토큰 만료는 7일, 갱신/폐기 메커니즘은 만료뿐
			TokenExpiry: getDuration("TOKEN_EXPIRY", 7*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}
}

// getRequiredEnv 필수 환경 변수 조회 (없으면 Fatal)
func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("🚨 CRITICAL: Required environment variable %s is not set!", key)
	}
	return value
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
