// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// SubjectProgress は生徒ごと・科目ごとの累積学習状態を表します。
// 不変条件: CompletedMinutes + RemainingMinutes == TotalMinutes
//           IsCompleted == (RemainingMinutes == 0)
// 行は生徒がコースに最初に関わったときに遅延作成され、削除されません。
type SubjectProgress struct {
	ProgressID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"progress_id"`
	StudentID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_student_subject,unique" json:"student_id"` // 複合ユニークインデックスの一部
	SubjectID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_student_subject,unique" json:"subject_id"` // 複合ユニークインデックスの一部
	TotalMinutes     int        `gorm:"not null" json:"total_minutes"`
	CompletedMinutes int        `gorm:"not null;default:0" json:"completed_minutes"`
	RemainingMinutes int        `gorm:"not null" json:"remaining_minutes"`
	IsCompleted      bool       `gorm:"not null;default:false" json:"is_completed"`
	LastStudyDate    *time.Time `json:"last_study_date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// 関連 (Preload用)
	Subject *CourseSubject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"-"`
}

func (SubjectProgress) TableName() string {
	return "subject_progress"
}

// HasStarted は一度でも学習時間が計上されたかを返します
func (p *SubjectProgress) HasStarted() bool {
	return p.CompletedMinutes > 0
}

// Apply は配分された時間を進捗に反映します。
// 呼び出し側(アロケータ)が RemainingMinutes でクランプ済みであることが前提です。
func (p *SubjectProgress) Apply(minutes int, onDate time.Time) {
	p.CompletedMinutes += minutes
	remaining := p.TotalMinutes - p.CompletedMinutes
	if remaining < 0 {
		remaining = 0
	}
	p.RemainingMinutes = remaining
	p.IsCompleted = p.RemainingMinutes == 0
	d := onDate
	p.LastStudyDate = &d
}

// Clone はドライラン用のスナップショットコピーを返します
func (p *SubjectProgress) Clone() *SubjectProgress {
	c := *p
	if p.LastStudyDate != nil {
		d := *p.LastStudyDate
		c.LastStudyDate = &d
	}
	return &c
}

// SubjectProgressResponse は進捗一覧レスポンスのDTO
type SubjectProgressResponse struct {
	ProgressID       uuid.UUID  `json:"progress_id"`
	SubjectID        uuid.UUID  `json:"subject_id"`
	SubjectName      string     `json:"subject_name"`
	TotalMinutes     int        `json:"total_minutes"`
	CompletedMinutes int        `json:"completed_minutes"`
	RemainingMinutes int        `json:"remaining_minutes"`
	IsCompleted      bool       `json:"is_completed"`
	LastStudyDate    *time.Time `json:"last_study_date"`
}
