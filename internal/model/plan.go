// internal/model/plan.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type PlanStatus string

const (
	PlanStatusPlanned PlanStatus = "planned"
	PlanStatusDone    PlanStatus = "done"
)

// StudyPlan はカレンダー上の具体的な学習1回分を表します。
// 手動作成、または自動埋め込み(オートフィル)により生成されます。
type StudyPlan struct {
	PlanID    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"plan_id"`
	StudentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	CourseID  uuid.UUID  `gorm:"type:uuid;not null" json:"course_id"`
	Date      time.Time  `gorm:"type:date;not null;index" json:"date"`
	StartTime string     `gorm:"type:time;not null" json:"start_time"`
	EndTime   string     `gorm:"type:time;not null" json:"end_time"`
	Notes     string     `json:"notes"`
	Status    PlanStatus `gorm:"not null;default:planned" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// 関連 (Preload用)
	Subjects []StudyPlanSubject `gorm:"foreignKey:StudyPlanID;references:PlanID;constraint:OnDelete:CASCADE" json:"subjects"`
}

func (StudyPlan) TableName() string {
	return "study_plans"
}

// StudyPlanSubject は学習計画の時間のうち1科目に割り当てた部分です。
// アロケータのみが作成し、手動編集されません。StudyPlanの削除に連動して削除されます。
type StudyPlanSubject struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudyPlanID       uuid.UUID `gorm:"type:uuid;not null;index" json:"study_plan_id"`
	SubjectProgressID uuid.UUID `gorm:"type:uuid;not null" json:"subject_progress_id"`
	AllocatedMinutes  int       `gorm:"not null" json:"allocated_minutes"`
	CreatedAt         time.Time `json:"created_at"`
}

func (StudyPlanSubject) TableName() string {
	return "study_plan_subjects"
}

// 学習計画作成リクエストDTO
type CreateStudyPlanRequest struct {
	CourseID  uuid.UUID `json:"course_id" validate:"required"`
	Date      string    `json:"date" validate:"required"` // "2006-01-02"
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
	Notes     string    `json:"notes" validate:"max=500"`
}

// AllocatedSubject は1科目への割り当て結果のDTO
type AllocatedSubject struct {
	SubjectProgressID uuid.UUID `json:"subject_progress_id"`
	SubjectID         uuid.UUID `json:"subject_id"`
	SubjectName       string    `json:"subject_name"`
	AllocatedMinutes  int       `json:"allocated_minutes"`
	IsReview          bool      `json:"is_review"`
}

// StudyPlanResponse は計画作成レスポンスのDTO
type StudyPlanResponse struct {
	Plan              *StudyPlan         `json:"plan"`
	AllocatedSubjects []AllocatedSubject `json:"allocated_subjects"`
}
