// internal/repository/activity_repository.go
package repository

import (
	"context"

	"go_5_study_plan/internal/model"

	"gorm.io/gorm"
)

// ActivityRepository は操作ログの書き込み先です。
// 呼び出し側はエラーをログ出力するだけで、本処理を失敗させてはいけません。
type ActivityRepository interface {
	Create(ctx context.Context, db *gorm.DB, entry *model.ActivityLog) error
}

type gormActivityRepository struct{}

func NewGormActivityRepository() ActivityRepository {
	return &gormActivityRepository{}
}

func (r *gormActivityRepository) Create(ctx context.Context, db *gorm.DB, entry *model.ActivityLog) error {
	result := db.WithContext(ctx).Create(entry)
	return result.Error
}
