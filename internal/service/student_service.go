// internal/service/student_service.go
package service

import (
	"context"

	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentService は生徒ディレクトリです。登録と存在確認 (認証ミドルウェア用) を提供します。
type StudentService interface {
	RegisterStudent(ctx context.Context, req *model.RegisterStudentRequest) (*model.Student, error)
	GetStudent(ctx context.Context, studentID uuid.UUID) (*model.Student, error)
}

type studentService struct {
	db          *gorm.DB
	studentRepo repository.StudentRepository
}

func NewStudentService(db *gorm.DB, studentRepo repository.StudentRepository) StudentService {
	return &studentService{db: db, studentRepo: studentRepo}
}

func (s *studentService) RegisterStudent(ctx context.Context, req *model.RegisterStudentRequest) (*model.Student, error) {
	logger := middleware.GetLogger(ctx)

	student := &model.Student{
		StudentID: uuid.New(), // Service層でUUIDを生成
		Name:      req.Name,
		Email:     req.Email,
		IsActive:  true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.studentRepo.Create(ctx, tx, student); err != nil {
			// メールアドレスのUNIQUE制約違反の可能性
			logger.Error("Error creating student in repo", "error", err)
			return model.NewAppError("CONFLICT", "この生徒は既に登録されています。", "email", model.ErrConflict)
		}
		return nil // コミット
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Student registered", "student_id", student.StudentID)
	return student, nil
}

// GetStudent は指定されたIDの生徒を取得します (認証用などに利用)
func (s *studentService) GetStudent(ctx context.Context, studentID uuid.UUID) (*model.Student, error) {
	student, err := s.studentRepo.FindByID(ctx, s.db, studentID)
	if err != nil {
		return nil, err
	}
	if !student.IsActive {
		return nil, model.ErrStudentNotFound
	}
	return student, nil
}
