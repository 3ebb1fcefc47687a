// internal/service/plan_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go_5_study_plan/internal/config"
	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// PlanService は学習計画の作成 (手動1回分の配分) と参照を提供します
type PlanService interface {
	CreateStudyPlan(ctx context.Context, studentID uuid.UUID, req *model.CreateStudyPlanRequest) (*model.StudyPlanResponse, error)
	GetStudyPlan(ctx context.Context, studentID, planID uuid.UUID) (*model.StudyPlan, error)
	ListStudyPlans(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*model.StudyPlan, error)
}

type planService struct {
	db           *gorm.DB
	progSvc      ProgressService
	planRepo     repository.PlanRepository
	activityRepo repository.ActivityRepository
	locker       *StudentLocker
	cfg          *config.Config
}

func NewPlanService(db *gorm.DB, progSvc ProgressService, planRepo repository.PlanRepository, activityRepo repository.ActivityRepository, locker *StudentLocker, cfg *config.Config) PlanService {
	return &planService{
		db:           db,
		progSvc:      progSvc,
		planRepo:     planRepo,
		activityRepo: activityRepo,
		locker:       locker,
		cfg:          cfg,
	}
}

func (s *planService) CreateStudyPlan(ctx context.Context, studentID uuid.UUID, req *model.CreateStudyPlanRequest) (*model.StudyPlanResponse, error) {
	logger := middleware.GetLogger(ctx).With("student_id", studentID, "course_id", req.CourseID)

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "日付の形式が正しくありません。", "date", model.ErrInvalidInput)
	}
	start, end, err := validateClockRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	windowMinutes := end - start

	// 同一生徒の read-modify-write を直列化する
	mu := s.locker.Lock(studentID)
	defer mu.Unlock()

	var plan *model.StudyPlan
	var allocs []allocation

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := s.progSvc.EnsureProgress(ctx, tx, studentID, req.CourseID)
		if err != nil {
			return err
		}

		plan = &model.StudyPlan{
			PlanID:    uuid.New(),
			StudentID: studentID,
			CourseID:  req.CourseID,
			Date:      date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Notes:     req.Notes,
			Status:    model.PlanStatusPlanned,
		}
		if err := s.planRepo.CreatePlan(ctx, tx, plan); err != nil {
			logger.Error("Error creating study plan in transaction", "error", err)
			return model.ErrInternalServer
		}

		allocs, err = runAllocation(snapshot, windowMinutes, s.cfg.App.ReviewCapMinutes, s.persistSink(ctx, tx, plan.PlanID, date))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, model.ActivityPlanCreated,
		fmt.Sprintf("学習計画を作成しました (%s %s-%s, %d科目)", req.Date, req.StartTime, req.EndTime, len(allocs)), plan.PlanID)
	logger.Info("Study plan created", "plan_id", plan.PlanID, "allocations", len(allocs))

	return &model.StudyPlanResponse{
		Plan:              plan,
		AllocatedSubjects: toAllocatedSubjects(allocs),
	}, nil
}

// persistSink は割り当て1件ごとに StudyPlanSubject 行を作成し、
// 進捗の反映 (ApplyAllocation / RecordReview) を行う戦略を返します
func (s *planService) persistSink(ctx context.Context, tx *gorm.DB, planID uuid.UUID, onDate time.Time) allocationSink {
	return func(al allocation) error {
		planSubject := &model.StudyPlanSubject{
			ID:                uuid.New(),
			StudyPlanID:       planID,
			SubjectProgressID: al.Progress.ProgressID,
			AllocatedMinutes:  al.Minutes,
		}
		if err := s.planRepo.CreatePlanSubject(ctx, tx, planSubject); err != nil {
			middleware.GetLogger(ctx).Error("Error creating plan subject", "progress_id", al.Progress.ProgressID, "error", err)
			return model.ErrInternalServer
		}
		if al.IsReview {
			return s.progSvc.RecordReview(ctx, tx, al.Progress, onDate)
		}
		return s.progSvc.ApplyAllocation(ctx, tx, al.Progress, al.Minutes, onDate)
	}
}

func (s *planService) GetStudyPlan(ctx context.Context, studentID, planID uuid.UUID) (*model.StudyPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, s.db, studentID, planID)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) ListStudyPlans(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*model.StudyPlan, error) {
	plans, err := s.planRepo.FindByStudentAndRange(ctx, s.db, studentID, from, to)
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing study plans", "error", err)
		return nil, model.ErrInternalServer
	}
	return plans, nil
}

func (s *planService) logActivity(ctx context.Context, activityType model.ActivityType, message string, relatedID uuid.UUID) {
	entry := &model.ActivityLog{
		ID:        uuid.New(),
		Type:      activityType,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.activityRepo.Create(ctx, s.db, entry); err != nil {
		middleware.GetLogger(ctx).Warn("Failed to write activity log", "type", activityType, "error", err)
	}
}

func toAllocatedSubjects(allocs []allocation) []model.AllocatedSubject {
	result := make([]model.AllocatedSubject, 0, len(allocs))
	for _, al := range allocs {
		name := ""
		if al.Progress.Subject != nil {
			name = al.Progress.Subject.Name
		}
		result = append(result, model.AllocatedSubject{
			SubjectProgressID: al.Progress.ProgressID,
			SubjectID:         al.Progress.SubjectID,
			SubjectName:       name,
			AllocatedMinutes:  al.Minutes,
			IsReview:          al.IsReview,
		})
	}
	return result
}
