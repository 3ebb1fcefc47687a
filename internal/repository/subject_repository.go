// internal/repository/subject_repository.go
package repository

import (
	"context"

	"go_5_study_plan/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubjectRepository は外部カタログの科目への読み取り専用アクセスです。
// 科目の作成・編集はカタログ側の責務で、このサービスでは行いません。
type SubjectRepository interface {
	FindByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]*model.CourseSubject, error)
}

type gormSubjectRepository struct{}

func NewGormSubjectRepository() SubjectRepository {
	return &gormSubjectRepository{}
}

func (r *gormSubjectRepository) FindByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]*model.CourseSubject, error) {
	var subjects []*model.CourseSubject
	result := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("subject_id ASC").
		Find(&subjects)
	if result.Error != nil {
		return nil, result.Error
	}
	return subjects, nil
}
