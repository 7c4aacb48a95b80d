package service

import "errors"

// 서비스 계층 공통 에러
var (
	// ErrEmailTaken 이미 등록된 이메일로 가입 시도
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials 로그인 실패
	//
	// Returned both for an unknown email and for a wrong password so that
	// responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound 대상 리소스 없음
	ErrNotFound = errors.New("not found")
)
