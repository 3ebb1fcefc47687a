// internal/model/slot.go
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WeeklyStudySlot は生徒の毎週の学習可能時間帯を表します。
// DayOfWeek は ISO 形式 (1=月曜 ... 7=日曜)。
// StartTime / EndTime は "HH:MM" 形式の時刻文字列です。
// 不変条件: 同一生徒・同一曜日のスロット同士は [start, end) が重ならないこと。
// 隣接 (AのendとBのstartが一致) は許可されます。
type WeeklyStudySlot struct {
	SlotID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"slot_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null" json:"course_id"`
	DayOfWeek int       `gorm:"type:smallint;not null" json:"day_of_week"`
	StartTime string    `gorm:"type:time;not null" json:"start_time"`
	EndTime   string    `gorm:"type:time;not null" json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WeeklyStudySlot) TableName() string {
	return "weekly_study_slots"
}

// WindowMinutes はスロットの長さ(分)を返します。
// 時刻フォーマットはリポジトリ到達前にバリデーション済み想定。
func (s *WeeklyStudySlot) WindowMinutes() int {
	start, err1 := ParseClock(s.StartTime)
	end, err2 := ParseClock(s.EndTime)
	if err1 != nil || err2 != nil {
		return 0
	}
	return end - start
}

// ParseClock は "HH:MM" を0時からの経過分に変換します。
// 末尾に余分な文字列がある値 ("10:30:59" など) は拒否します。
func ParseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", v, ErrInvalidInput)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// スロット作成リクエストDTO
type CreateSlotRequest struct {
	CourseID  uuid.UUID `json:"course_id" validate:"required"`
	DayOfWeek int       `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
}

// スロット更新（部分）リクエストDTO
type UpdateSlotRequest struct {
	CourseID  *uuid.UUID `json:"course_id,omitempty"`
	DayOfWeek *int       `json:"day_of_week,omitempty" validate:"omitempty,min=1,max=7"`
	StartTime *string    `json:"start_time,omitempty"`
	EndTime   *string    `json:"end_time,omitempty"`
}

// WeeklyTotalResponse は週間合計時間のレスポンスDTO (参考情報、配分には未使用)
type WeeklyTotalResponse struct {
	StudentID    uuid.UUID `json:"student_id"`
	TotalMinutes int       `json:"total_minutes"`
}
