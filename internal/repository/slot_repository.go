// internal/repository/slot_repository.go
package repository

import (
	"context"
	"errors"

	"go_5_study_plan/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotRepository interface {
	Create(ctx context.Context, tx *gorm.DB, slot *model.WeeklyStudySlot) error
	FindByID(ctx context.Context, db *gorm.DB, studentID, slotID uuid.UUID) (*model.WeeklyStudySlot, error)
	// FindByStudent は (day_of_week, start_time) 順で返します
	FindByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]*model.WeeklyStudySlot, error)
	// FindByStudentAndDay は重複チェック用に同一曜日のスロットを返します
	FindByStudentAndDay(ctx context.Context, db *gorm.DB, studentID uuid.UUID, dayOfWeek int) ([]*model.WeeklyStudySlot, error)
	Update(ctx context.Context, tx *gorm.DB, slot *model.WeeklyStudySlot) error
	Delete(ctx context.Context, tx *gorm.DB, studentID, slotID uuid.UUID) error
}

type gormSlotRepository struct{}

func NewGormSlotRepository() SlotRepository {
	return &gormSlotRepository{}
}

func (r *gormSlotRepository) Create(ctx context.Context, tx *gorm.DB, slot *model.WeeklyStudySlot) error {
	result := tx.WithContext(ctx).Create(slot)
	return result.Error
}

func (r *gormSlotRepository) FindByID(ctx context.Context, db *gorm.DB, studentID, slotID uuid.UUID) (*model.WeeklyStudySlot, error) {
	var slot model.WeeklyStudySlot
	result := db.WithContext(ctx).
		Where("slot_id = ? AND student_id = ?", slotID, studentID).
		First(&slot)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, result.Error
	}
	return &slot, nil
}

func (r *gormSlotRepository) FindByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]*model.WeeklyStudySlot, error) {
	var slots []*model.WeeklyStudySlot
	result := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots)
	if result.Error != nil {
		return nil, result.Error
	}
	return slots, nil
}

func (r *gormSlotRepository) FindByStudentAndDay(ctx context.Context, db *gorm.DB, studentID uuid.UUID, dayOfWeek int) ([]*model.WeeklyStudySlot, error) {
	var slots []*model.WeeklyStudySlot
	result := db.WithContext(ctx).
		Where("student_id = ? AND day_of_week = ?", studentID, dayOfWeek).
		Order("start_time ASC").
		Find(&slots)
	if result.Error != nil {
		return nil, result.Error
	}
	return slots, nil
}

func (r *gormSlotRepository) Update(ctx context.Context, tx *gorm.DB, slot *model.WeeklyStudySlot) error {
	result := tx.WithContext(ctx).Save(slot)
	return result.Error
}

func (r *gormSlotRepository) Delete(ctx context.Context, tx *gorm.DB, studentID, slotID uuid.UUID) error {
	result := tx.WithContext(ctx).
		Where("slot_id = ? AND student_id = ?", slotID, studentID).
		Delete(&model.WeeklyStudySlot{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
