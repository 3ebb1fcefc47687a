package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 生徒の基本情報
type Student struct {
	StudentID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"student_id"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"unique;not null" json:"email"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Student) TableName() string {
	return "students"
}

type ContextKey string

const (
	StudentIDKey ContextKey = "studentID"
)

// RegisterStudentRequest は生徒登録APIのリクエストボディの構造体 (DTO)
type RegisterStudentRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// StudentResponse はクライアントに返す生徒情報の構造体
type StudentResponse struct {
	StudentID uuid.UUID `json:"student_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
