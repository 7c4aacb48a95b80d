package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/model"
)

// bcryptCost 비밀번호 해시 비용 계수
const bcryptCost = 12

// AuthService 인증 서비스 인터페이스
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
}

var _ AuthService = (*authService)(nil)

type authService struct {
	db         *gorm.DB
	jwtManager *auth.JWTManager
}

// NewAuthService AuthService 생성
func NewAuthService(db *gorm.DB, jwtManager *auth.JWTManager) AuthService {
	return &authService{db: db, jwtManager: jwtManager}
}

// Register 신규 사용자 등록
//
// Stores only the bcrypt hash, never the plaintext. Returns the created user
// together with a signed token so the caller is logged in immediately.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	// 이메일 중복 확인
	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, "", ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to look up email: %w", err)
	}

	// 비밀번호 해시
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwtManager.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	log.Printf("[Auth] User %d registered (%s)", user.ID, user.Email)
	return user, token, nil
}

// Login 이메일/비밀번호 인증 후 토큰 발급
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 존재하지 않는 계정도 비밀번호 오류와 동일하게 응답
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	return &user, token, nil
}

// FindUserByID 사용자 조회 (토큰 검증 경로에서 사용)
func (s *authService) FindUserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}
