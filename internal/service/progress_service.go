// internal/service/progress_service.go
package service

import (
	"context"
	"time"

	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgressService は生徒ごと・科目ごとの進捗状態を管理します。
// 配分処理のトランザクション内から呼ばれるため、各メソッドは tx を受け取ります。
type ProgressService interface {
	// EnsureProgress はコースの全科目について進捗行を遅延作成します (冪等)。
	// コースにカタログ科目が1つもなければ model.ErrNotFound を返します。
	EnsureProgress(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) ([]*model.SubjectProgress, error)
	// ApplyAllocation は配分された時間を進捗に反映して永続化します。
	// minutes は呼び出し元(アロケータ)がクランプ済みであること。
	ApplyAllocation(ctx context.Context, tx *gorm.DB, progress *model.SubjectProgress, minutes int, onDate time.Time) error
	// RecordReview は完了済み科目の復習を記録します (lastStudyDateのみ更新)。
	RecordReview(ctx context.Context, tx *gorm.DB, progress *model.SubjectProgress, onDate time.Time) error
	// ListCourseProgress は進捗一覧をDTOで返します
	ListCourseProgress(ctx context.Context, studentID, courseID uuid.UUID) ([]*model.SubjectProgressResponse, error)
}

type progressService struct {
	db          *gorm.DB
	subjectRepo repository.SubjectRepository
	progRepo    repository.ProgressRepository
}

func NewProgressService(db *gorm.DB, subjectRepo repository.SubjectRepository, progRepo repository.ProgressRepository) ProgressService {
	return &progressService{
		db:          db,
		subjectRepo: subjectRepo,
		progRepo:    progRepo,
	}
}

func (s *progressService) EnsureProgress(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) ([]*model.SubjectProgress, error) {
	logger := middleware.GetLogger(ctx).With("student_id", studentID, "course_id", courseID)

	subjects, err := s.subjectRepo.FindByCourse(ctx, tx, courseID)
	if err != nil {
		logger.Error("Failed to load course subjects", "error", err)
		return nil, model.ErrInternalServer
	}
	if len(subjects) == 0 {
		return nil, model.NewAppError("NOT_FOUND", "コースに科目が登録されていません。", "course_id", model.ErrNotFound)
	}

	existing, err := s.progRepo.FindByStudentAndCourse(ctx, tx, studentID, courseID)
	if err != nil {
		logger.Error("Failed to load existing progress", "error", err)
		return nil, model.ErrInternalServer
	}
	bySubject := make(map[uuid.UUID]*model.SubjectProgress, len(existing))
	for _, p := range existing {
		bySubject[p.SubjectID] = p
	}

	result := make([]*model.SubjectProgress, 0, len(subjects))
	for _, subj := range subjects {
		if p, ok := bySubject[subj.SubjectID]; ok {
			result = append(result, p)
			continue
		}
		// 不在の行のみ作成 (冪等)
		p := &model.SubjectProgress{
			ProgressID:       uuid.New(),
			StudentID:        studentID,
			SubjectID:        subj.SubjectID,
			TotalMinutes:     subj.DurationMinutes,
			CompletedMinutes: 0,
			RemainingMinutes: subj.DurationMinutes,
			IsCompleted:      subj.DurationMinutes == 0,
			Subject:          subj,
		}
		if err := s.progRepo.Create(ctx, tx, p); err != nil {
			logger.Error("Failed to create progress row", "subject_id", subj.SubjectID, "error", err)
			return nil, model.ErrInternalServer
		}
		logger.Debug("Progress row created lazily", "progress_id", p.ProgressID, "subject_id", subj.SubjectID)
		result = append(result, p)
	}
	return result, nil
}

func (s *progressService) ApplyAllocation(ctx context.Context, tx *gorm.DB, progress *model.SubjectProgress, minutes int, onDate time.Time) error {
	progress.Apply(minutes, onDate)
	if err := s.progRepo.Update(ctx, tx, progress); err != nil {
		middleware.GetLogger(ctx).Error("Failed to persist progress allocation", "progress_id", progress.ProgressID, "error", err)
		return model.ErrInternalServer
	}
	return nil
}

func (s *progressService) RecordReview(ctx context.Context, tx *gorm.DB, progress *model.SubjectProgress, onDate time.Time) error {
	d := onDate
	progress.LastStudyDate = &d
	if err := s.progRepo.Update(ctx, tx, progress); err != nil {
		middleware.GetLogger(ctx).Error("Failed to persist review record", "progress_id", progress.ProgressID, "error", err)
		return model.ErrInternalServer
	}
	return nil
}

func (s *progressService) ListCourseProgress(ctx context.Context, studentID, courseID uuid.UUID) ([]*model.SubjectProgressResponse, error) {
	progresses, err := s.progRepo.FindByStudentAndCourse(ctx, s.db, studentID, courseID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Failed to list course progress", "error", err)
		return nil, model.ErrInternalServer
	}
	responses := make([]*model.SubjectProgressResponse, 0, len(progresses))
	for _, p := range progresses {
		name := ""
		if p.Subject != nil {
			name = p.Subject.Name
		}
		responses = append(responses, &model.SubjectProgressResponse{
			ProgressID:       p.ProgressID,
			SubjectID:        p.SubjectID,
			SubjectName:      name,
			TotalMinutes:     p.TotalMinutes,
			CompletedMinutes: p.CompletedMinutes,
			RemainingMinutes: p.RemainingMinutes,
			IsCompleted:      p.IsCompleted,
			LastStudyDate:    p.LastStudyDate,
		})
	}
	return responses, nil
}
