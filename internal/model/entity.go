package model

import (
	"time"
)

// User 사용자 계정
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Whiteboards []Whiteboard `gorm:"foreignKey:OwnerID" json:"whiteboards,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Whiteboard 화이트보드 메타데이터
//
// SceneID is assigned once at creation and never changes. It is the only join
// key into the scene document store. A row may exist with no matching scene
// document (board created without initial content) - that is a valid state,
// not an error.
type Whiteboard struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	SceneID   string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"scene_id"`
	OwnerID   int64     `gorm:"not null;index" json:"owner_id"`
	IsPublic  bool      `gorm:"default:false" json:"is_public"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Owner User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (Whiteboard) TableName() string {
	return "whiteboards"
}
