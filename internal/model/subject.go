// internal/model/subject.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// CourseSubject はコースに属する科目（カタログ項目）を表します。
// 外部の科目カタログが所有するデータで、このサービスからは読み取り専用です。
type CourseSubject struct {
	SubjectID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"subject_id"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Name            string    `gorm:"not null" json:"name"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"` // 習得に必要な標準時間(分)
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (CourseSubject) TableName() string {
	return "course_subjects"
}
