// internal/repository/student_repository.go
package repository

import (
	"context"
	"errors"

	"go_5_study_plan/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentRepository は生徒ディレクトリへのアクセスを提供します (存在確認が主用途)
type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *model.Student) error
	FindByID(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (*model.Student, error)
}

type gormStudentRepository struct{}

func NewGormStudentRepository() StudentRepository {
	return &gormStudentRepository{}
}

func (r *gormStudentRepository) Create(ctx context.Context, tx *gorm.DB, student *model.Student) error {
	result := tx.WithContext(ctx).Create(student)
	return result.Error
}

func (r *gormStudentRepository) FindByID(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (*model.Student, error) {
	var student model.Student
	result := db.WithContext(ctx).Where("student_id = ?", studentID).First(&student)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, result.Error
	}
	return &student, nil
}
