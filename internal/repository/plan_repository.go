// internal/repository/plan_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"go_5_study_plan/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanRepository interface {
	CreatePlan(ctx context.Context, tx *gorm.DB, plan *model.StudyPlan) error
	CreatePlanSubject(ctx context.Context, tx *gorm.DB, planSubject *model.StudyPlanSubject) error
	FindByID(ctx context.Context, db *gorm.DB, studentID, planID uuid.UUID) (*model.StudyPlan, error)
	// FindByStudentAndRange は日付範囲内の計画を日付順で返します
	FindByStudentAndRange(ctx context.Context, db *gorm.DB, studentID uuid.UUID, from, to time.Time) ([]*model.StudyPlan, error)
}

type gormPlanRepository struct{}

func NewGormPlanRepository() PlanRepository {
	return &gormPlanRepository{}
}

func (r *gormPlanRepository) CreatePlan(ctx context.Context, tx *gorm.DB, plan *model.StudyPlan) error {
	// Subjects はアロケータが個別に作成するため関連の連鎖保存は行わない
	result := tx.WithContext(ctx).Omit("Subjects").Create(plan)
	return result.Error
}

func (r *gormPlanRepository) CreatePlanSubject(ctx context.Context, tx *gorm.DB, planSubject *model.StudyPlanSubject) error {
	result := tx.WithContext(ctx).Create(planSubject)
	return result.Error
}

func (r *gormPlanRepository) FindByID(ctx context.Context, db *gorm.DB, studentID, planID uuid.UUID) (*model.StudyPlan, error) {
	var plan model.StudyPlan
	result := db.WithContext(ctx).
		Preload("Subjects").
		Where("plan_id = ? AND student_id = ?", planID, studentID).
		First(&plan)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, result.Error
	}
	return &plan, nil
}

func (r *gormPlanRepository) FindByStudentAndRange(ctx context.Context, db *gorm.DB, studentID uuid.UUID, from, to time.Time) ([]*model.StudyPlan, error) {
	var plans []*model.StudyPlan
	result := db.WithContext(ctx).
		Preload("Subjects").
		Where("student_id = ? AND date >= ? AND date <= ?", studentID, from, to).
		Order("date ASC, start_time ASC").
		Find(&plans)
	if result.Error != nil {
		return nil, result.Error
	}
	return plans, nil
}
