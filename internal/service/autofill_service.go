// internal/service/autofill_service.go
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

// 一度に埋められる日付範囲の上限 (暴走防止)
const maxAutofillRangeDays = 366

// AutofillService は週間スロットを日付範囲に展開し、各スロットへ科目を自動配分します
type AutofillService interface {
	// AutofillTopics は [startDate, endDate] の各日について該当スロットを埋めます。
	// dryRun=true の場合は永続化せず、メモリ上のスナップショットだけを進めます。
	// スロット単位の失敗はレポートの Errors に集約され、バッチは中断しません。
	AutofillTopics(ctx context.Context, studentID uuid.UUID, startDate, endDate time.Time, dryRun bool) (*model.AutofillReport, error)
}

type autofillService struct {
	db           *gorm.DB
	slotRepo     repository.SlotRepository
	subjectRepo  repository.SubjectRepository
	progRepo     repository.ProgressRepository
	planRepo     repository.PlanRepository
	activityRepo repository.ActivityRepository
	progSvc      ProgressService
	locker       *StudentLocker
	cfg          *config.Config
}

func NewAutofillService(db *gorm.DB, slotRepo repository.SlotRepository, subjectRepo repository.SubjectRepository, progRepo repository.ProgressRepository, planRepo repository.PlanRepository, activityRepo repository.ActivityRepository, progSvc ProgressService, locker *StudentLocker, cfg *config.Config) AutofillService {
	return &autofillService{
		db:           db,
		slotRepo:     slotRepo,
		subjectRepo:  subjectRepo,
		progRepo:     progRepo,
		planRepo:     planRepo,
		activityRepo: activityRepo,
		progSvc:      progSvc,
		locker:       locker,
		cfg:          cfg,
	}
}

func (s *autofillService) AutofillTopics(ctx context.Context, studentID uuid.UUID, startDate, endDate time.Time, dryRun bool) (*model.AutofillReport, error) {
	logger := middleware.GetLogger(ctx).With("student_id", studentID, "dry_run", dryRun)

	if endDate.Before(startDate) {
		return nil, model.NewAppError("VALIDATION_ERROR", "終了日は開始日以降である必要があります。", "end_date", model.ErrInvalidInput)
	}
	if endDate.Sub(startDate) > maxAutofillRangeDays*24*time.Hour {
		return nil, model.NewAppError("VALIDATION_ERROR", "日付範囲が長すぎます。", "end_date", model.ErrInvalidInput)
	}

	// 同一生徒の read-modify-write を直列化する
	mu := s.locker.Lock(studentID)
	defer mu.Unlock()

	slots, err := s.slotRepo.FindByStudent(ctx, s.db, studentID)
	if err != nil {
		logger.Error("Failed to load weekly slots", "error", err)
		return nil, model.ErrInternalServer
	}
	if len(slots) == 0 {
		return nil, model.NewAppError("NO_SLOTS_CONFIGURED", "週間スロットが設定されていません。", "", model.ErrNoSlotsConfigured)
	}

	// 曜日ごとのスロット (FindByStudent が day, start 順で返すため順序は保たれる)
	slotsByDay := make(map[int][]*model.WeeklyStudySlot)
	for _, slot := range slots {
		slotsByDay[slot.DayOfWeek] = append(slotsByDay[slot.DayOfWeek], slot)
	}

	report := &model.AutofillReport{FilledSlots: []model.FilledSlot{}}
	// ドライラン用: コースごとの進捗スナップショット。日付をまたいで引き継ぐ。
	snapshots := make(map[uuid.UUID][]*model.SubjectProgress)

	// 日付は必ず時系列順に処理する。前の日の消費が次の日の入力になるため、
	// 並列化してはならない。
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		// 長期間のバッチを途中で打ち切れるように、日付の境界でキャンセルを確認する
		if ctx.Err() != nil {
			logger.Warn("Autofill cancelled, returning partial result", "stopped_at", d.Format(dateLayout))
			break
		}

		daySlots := slotsByDay[isoDayOfWeek(d)]
		for _, slot := range daySlots {
			filled, err := s.fillSlot(ctx, studentID, slot, d, dryRun, snapshots)
			if err != nil {
				// スロット単位の失敗はソフトエラー。残りの処理は継続する。
				report.Errors = append(report.Errors, model.AutofillError{
					Date:    d.Format(dateLayout),
					SlotID:  slot.SlotID,
					Message: err.Error(),
				})
				continue
			}
			if filled != nil {
				report.FilledSlots = append(report.FilledSlots, *filled)
			}
		}
	}

	if len(report.FilledSlots) == 0 {
		report.Success = false
		report.Message = "nothing to fill"
		return report, nil
	}
	report.Success = true

	if !dryRun {
		s.logActivity(ctx, model.ActivityAutofillRun,
			fmt.Sprintf("オートフィルを実行しました (%s〜%s, %dスロット)",
				startDate.Format(dateLayout), endDate.Format(dateLayout), len(report.FilledSlots)), studentID)
	}
	logger.Info("Autofill finished", "filled", len(report.FilledSlots), "errors", len(report.Errors))
	return report, nil
}

// fillSlot は1スロット分の配分を行います。割り当てが生じた場合のみ結果を返します。
func (s *autofillService) fillSlot(ctx context.Context, studentID uuid.UUID, slot *model.WeeklyStudySlot, date time.Time, dryRun bool, snapshots map[uuid.UUID][]*model.SubjectProgress) (*model.FilledSlot, error) {
	windowMinutes := slot.WindowMinutes()
	if windowMinutes <= 0 {
		return nil, model.NewAppError("VALIDATION_ERROR", "スロットの時間幅が不正です。", "", model.ErrInvalidInput)
	}

	var allocs []allocation
	var err error

	if dryRun {
		snapshot, ok := snapshots[slot.CourseID]
		if !ok {
			snapshot, err = s.buildSnapshot(ctx, studentID, slot.CourseID)
			if err != nil {
				return nil, err
			}
			snapshots[slot.CourseID] = snapshot
		}
		allocs, err = runAllocation(snapshot, windowMinutes, s.cfg.App.ReviewCapMinutes, simulateSink(date))
		if err != nil {
			return nil, err
		}
	} else {
		// ライブ実行はスロットごとに独立してコミットする。
		// 途中で失敗しても、それまでの日付の効果は残る (意図した設計)。
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			snapshot, err := s.progSvc.EnsureProgress(ctx, tx, studentID, slot.CourseID)
			if err != nil {
				return err
			}
			plan := &model.StudyPlan{
				PlanID:    uuid.New(),
				StudentID: studentID,
				CourseID:  slot.CourseID,
				Date:      date,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Notes:     "オートフィルによる自動作成",
				Status:    model.PlanStatusPlanned,
			}
			if err := s.planRepo.CreatePlan(ctx, tx, plan); err != nil {
				return model.ErrInternalServer
			}
			allocs, err = runAllocation(snapshot, windowMinutes, s.cfg.App.ReviewCapMinutes, s.persistSink(ctx, tx, plan.PlanID, date))
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if len(allocs) == 0 {
		return nil, nil
	}
	filled := &model.FilledSlot{
		Date:     date.Format(dateLayout),
		SlotID:   slot.SlotID,
		CourseID: slot.CourseID,
		Subjects: make([]model.FilledSlotSubject, 0, len(allocs)),
	}
	for _, al := range allocs {
		name := ""
		if al.Progress.Subject != nil {
			name = al.Progress.Subject.Name
		}
		filled.Subjects = append(filled.Subjects, model.FilledSlotSubject{
			SubjectID:        al.Progress.SubjectID,
			Name:             name,
			AllocatedMinutes: al.Minutes,
			IsReview:         al.IsReview,
		})
	}
	return filled, nil
}

// buildSnapshot はドライラン用の進捗スナップショットを構築します。
// 既存の進捗行はコピーし、未作成の行はメモリ上でのみ補完します (DBへは書かない)。
func (s *autofillService) buildSnapshot(ctx context.Context, studentID, courseID uuid.UUID) ([]*model.SubjectProgress, error) {
	subjects, err := s.subjectRepo.FindByCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	if len(subjects) == 0 {
		return nil, model.NewAppError("NOT_FOUND", "コースに科目が登録されていません。", "course_id", model.ErrNotFound)
	}
	existing, err := s.progRepo.FindByStudentAndCourse(ctx, s.db, studentID, courseID)
	if err != nil {
		return nil, model.ErrInternalServer
	}
	bySubject := make(map[uuid.UUID]*model.SubjectProgress, len(existing))
	for _, p := range existing {
		bySubject[p.SubjectID] = p
	}
	snapshot := make([]*model.SubjectProgress, 0, len(subjects))
	for _, subj := range subjects {
		if p, ok := bySubject[subj.SubjectID]; ok {
			c := p.Clone()
			c.Subject = subj
			snapshot = append(snapshot, c)
			continue
		}
		snapshot = append(snapshot, &model.SubjectProgress{
			ProgressID:       uuid.New(),
			StudentID:        studentID,
			SubjectID:        subj.SubjectID,
			TotalMinutes:     subj.DurationMinutes,
			CompletedMinutes: 0,
			RemainingMinutes: subj.DurationMinutes,
			IsCompleted:      subj.DurationMinutes == 0,
			Subject:          subj,
		})
	}
	return snapshot, nil
}

// persistSink はライブ実行用の永続化戦略です (plan_service と同じ形)
func (s *autofillService) persistSink(ctx context.Context, tx *gorm.DB, planID uuid.UUID, onDate time.Time) allocationSink {
	return func(al allocation) error {
		planSubject := &model.StudyPlanSubject{
			ID:                uuid.New(),
			StudyPlanID:       planID,
			SubjectProgressID: al.Progress.ProgressID,
			AllocatedMinutes:  al.Minutes,
		}
		if err := s.planRepo.CreatePlanSubject(ctx, tx, planSubject); err != nil {
			return model.ErrInternalServer
		}
		if al.IsReview {
			return s.progSvc.RecordReview(ctx, tx, al.Progress, onDate)
		}
		return s.progSvc.ApplyAllocation(ctx, tx, al.Progress, al.Minutes, onDate)
	}
}

func (s *autofillService) logActivity(ctx context.Context, activityType model.ActivityType, message string, relatedID uuid.UUID) {
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

// isoDayOfWeek は time.Weekday を ISO 形式 (1=月曜...7=日曜) に変換します
func isoDayOfWeek(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7 // 日曜
	}
	return wd
}
