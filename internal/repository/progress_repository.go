// internal/repository/progress_repository.go
package repository

import (
	"context"
	"errors"

	"go_5_study_plan/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository interface {
	Create(ctx context.Context, tx *gorm.DB, progress *model.SubjectProgress) error // トランザクション対応
	FindByID(ctx context.Context, db *gorm.DB, progressID uuid.UUID) (*model.SubjectProgress, error)
	// FindByStudentAndCourse は指定コースの科目に紐づく進捗をSubjectをPreloadして返します
	FindByStudentAndCourse(ctx context.Context, db *gorm.DB, studentID, courseID uuid.UUID) ([]*model.SubjectProgress, error)
	Update(ctx context.Context, tx *gorm.DB, progress *model.SubjectProgress) error // トランザクション対応
}

type gormProgressRepository struct {
	// DB接続はService層から渡される想定
}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) Create(ctx context.Context, tx *gorm.DB, progress *model.SubjectProgress) error {
	// UUIDはService層で設定済み想定
	result := tx.WithContext(ctx).Create(progress)
	// 複合ユニーク制約違反はGORMがErrorで返す
	return result.Error
}

func (r *gormProgressRepository) FindByID(ctx context.Context, db *gorm.DB, progressID uuid.UUID) (*model.SubjectProgress, error) {
	var progress model.SubjectProgress
	result := db.WithContext(ctx).Preload("Subject").Where("progress_id = ?", progressID).First(&progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, result.Error
	}
	return &progress, nil
}

func (r *gormProgressRepository) FindByStudentAndCourse(ctx context.Context, db *gorm.DB, studentID, courseID uuid.UUID) ([]*model.SubjectProgress, error) {
	var progresses []*model.SubjectProgress
	// コース内の科目に属する進捗だけをJOINで絞り込む
	result := db.WithContext(ctx).
		Preload("Subject").
		Joins("JOIN course_subjects ON course_subjects.subject_id = subject_progress.subject_id AND course_subjects.course_id = ?", courseID).
		Where("subject_progress.student_id = ?", studentID).
		Order("subject_progress.progress_id ASC").
		Find(&progresses)
	if result.Error != nil {
		return nil, result.Error
	}
	return progresses, nil
}

func (r *gormProgressRepository) Update(ctx context.Context, tx *gorm.DB, progress *model.SubjectProgress) error {
	// progress オブジェクト全体を渡して更新。主キーに基づくUpdate。
	// PreloadされたSubject(読み取り専用カタログ)を巻き込まないよう関連は除外する。
	// 事前の存在確認は呼び出し元(Service)が行っている想定。
	result := tx.WithContext(ctx).Omit(clause.Associations).Save(progress)
	return result.Error
}
