// internal/service/slot_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotService は生徒の週間スロット設定を管理します。
// 同一生徒・同一曜日内でのスロットの重複は作成・更新時に拒否します。
type SlotService interface {
	CreateSlot(ctx context.Context, studentID uuid.UUID, req *model.CreateSlotRequest) (*model.WeeklyStudySlot, error)
	UpdateSlot(ctx context.Context, studentID, slotID uuid.UUID, req *model.UpdateSlotRequest) (*model.WeeklyStudySlot, error)
	DeleteSlot(ctx context.Context, studentID, slotID uuid.UUID) error
	ListSlots(ctx context.Context, studentID uuid.UUID) ([]*model.WeeklyStudySlot, error)
	// WeeklyTotalMinutes は週間合計(分)を返します。参考情報で、配分処理では使いません。
	WeeklyTotalMinutes(ctx context.Context, studentID uuid.UUID) (int, error)
}

type slotService struct {
	db           *gorm.DB
	slotRepo     repository.SlotRepository
	activityRepo repository.ActivityRepository
}

func NewSlotService(db *gorm.DB, slotRepo repository.SlotRepository, activityRepo repository.ActivityRepository) SlotService {
	return &slotService{
		db:           db,
		slotRepo:     slotRepo,
		activityRepo: activityRepo,
	}
}

// validateClockRange は時刻フォーマットと start < end を検証します
func validateClockRange(startTime, endTime string) (int, int, error) {
	start, err := model.ParseClock(startTime)
	if err != nil {
		return 0, 0, model.NewAppError("VALIDATION_ERROR", "開始時刻の形式が正しくありません。", "start_time", model.ErrInvalidInput)
	}
	end, err := model.ParseClock(endTime)
	if err != nil {
		return 0, 0, model.NewAppError("VALIDATION_ERROR", "終了時刻の形式が正しくありません。", "end_time", model.ErrInvalidInput)
	}
	if start >= end {
		return 0, 0, model.NewAppError("VALIDATION_ERROR", "開始時刻は終了時刻より前である必要があります。", "start_time", model.ErrInvalidInput)
	}
	return start, end, nil
}

// overlaps は半開区間 [start, end) の重なり判定です。隣接は重なりとみなしません。
func overlaps(newStart, newEnd, existingStart, existingEnd int) bool {
	return newStart < existingEnd && newEnd > existingStart
}

// checkConflicts は同一曜日の既存スロットとの重複を検査します。
// excludeID が指定された場合、そのスロット自身は検査対象から外します (更新用)。
func (s *slotService) checkConflicts(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, dayOfWeek, start, end int, excludeID *uuid.UUID) error {
	sameDay, err := s.slotRepo.FindByStudentAndDay(ctx, tx, studentID, dayOfWeek)
	if err != nil {
		return model.ErrInternalServer
	}
	for _, existing := range sameDay {
		if excludeID != nil && existing.SlotID == *excludeID {
			continue
		}
		exStart, err1 := model.ParseClock(existing.StartTime)
		exEnd, err2 := model.ParseClock(existing.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if overlaps(start, end, exStart, exEnd) {
			return model.NewAppError("CONFLICT",
				fmt.Sprintf("既存のスロット (%s-%s) と重複しています。", existing.StartTime, existing.EndTime),
				"", model.ErrConflict)
		}
	}
	return nil
}

func (s *slotService) CreateSlot(ctx context.Context, studentID uuid.UUID, req *model.CreateSlotRequest) (*model.WeeklyStudySlot, error) {
	logger := middleware.GetLogger(ctx).With("student_id", studentID)

	start, end, err := validateClockRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if req.DayOfWeek < 1 || req.DayOfWeek > 7 {
		return nil, model.NewAppError("VALIDATION_ERROR", "曜日は1(月)〜7(日)で指定してください。", "day_of_week", model.ErrInvalidInput)
	}

	slot := &model.WeeklyStudySlot{
		SlotID:    uuid.New(),
		StudentID: studentID,
		CourseID:  req.CourseID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkConflicts(ctx, tx, studentID, req.DayOfWeek, start, end, nil); err != nil {
			return err
		}
		if err := s.slotRepo.Create(ctx, tx, slot); err != nil {
			logger.Error("Error creating slot in transaction", "error", err)
			return model.ErrInternalServer
		}
		return nil // コミット
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, model.ActivitySlotCreated,
		fmt.Sprintf("週間スロットを作成しました (曜日=%d %s-%s)", slot.DayOfWeek, slot.StartTime, slot.EndTime), slot.SlotID)
	logger.Info("Weekly slot created", "slot_id", slot.SlotID, "day_of_week", slot.DayOfWeek)
	return slot, nil
}

func (s *slotService) UpdateSlot(ctx context.Context, studentID, slotID uuid.UUID, req *model.UpdateSlotRequest) (*model.WeeklyStudySlot, error) {
	logger := middleware.GetLogger(ctx).With("student_id", studentID, "slot_id", slotID)

	var updated *model.WeeklyStudySlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slot, err := s.slotRepo.FindByID(ctx, tx, studentID, slotID)
		if err != nil {
			return err // model.ErrNotFound or DBエラー
		}

		if req.CourseID != nil {
			slot.CourseID = *req.CourseID
		}
		if req.DayOfWeek != nil {
			slot.DayOfWeek = *req.DayOfWeek
		}
		if req.StartTime != nil {
			slot.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			slot.EndTime = *req.EndTime
		}

		start, end, err := validateClockRange(slot.StartTime, slot.EndTime)
		if err != nil {
			return err
		}
		if slot.DayOfWeek < 1 || slot.DayOfWeek > 7 {
			return model.NewAppError("VALIDATION_ERROR", "曜日は1(月)〜7(日)で指定してください。", "day_of_week", model.ErrInvalidInput)
		}

		// 自分自身を除いた同一曜日スロットと再検査
		if err := s.checkConflicts(ctx, tx, studentID, slot.DayOfWeek, start, end, &slotID); err != nil {
			return err
		}
		if err := s.slotRepo.Update(ctx, tx, slot); err != nil {
			logger.Error("Error updating slot in transaction", "error", err)
			return model.ErrInternalServer
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, model.ActivitySlotModified,
		fmt.Sprintf("週間スロットを更新しました (曜日=%d %s-%s)", updated.DayOfWeek, updated.StartTime, updated.EndTime), updated.SlotID)
	return updated, nil
}

func (s *slotService) DeleteSlot(ctx context.Context, studentID, slotID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.slotRepo.Delete(ctx, tx, studentID, slotID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		middleware.GetLogger(ctx).Error("Error deleting slot", "slot_id", slotID, "error", err)
		return model.ErrInternalServer
	}
	return nil
}

func (s *slotService) ListSlots(ctx context.Context, studentID uuid.UUID) ([]*model.WeeklyStudySlot, error) {
	slots, err := s.slotRepo.FindByStudent(ctx, s.db, studentID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing slots", "error", err)
		return nil, model.ErrInternalServer
	}
	return slots, nil
}

func (s *slotService) WeeklyTotalMinutes(ctx context.Context, studentID uuid.UUID) (int, error) {
	slots, err := s.slotRepo.FindByStudent(ctx, s.db, studentID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing slots for weekly total", "error", err)
		return 0, model.ErrInternalServer
	}
	total := 0
	for _, slot := range slots {
		total += slot.WindowMinutes()
	}
	return total, nil
}

// logActivity は操作ログを記録します。失敗しても本処理は失敗させません。
func (s *slotService) logActivity(ctx context.Context, activityType model.ActivityType, message string, relatedID uuid.UUID) {
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
