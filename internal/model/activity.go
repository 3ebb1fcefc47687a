// internal/model/activity.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityPlanCreated  ActivityType = "plan_created"
	ActivityAutofillRun  ActivityType = "autofill_run"
	ActivitySlotCreated  ActivityType = "slot_created"
	ActivitySlotModified ActivityType = "slot_modified"
)

// ActivityLog は操作の記録 (fire-and-forget)。
// 書き込み失敗は呼び出し元の処理を失敗させてはならない。
type ActivityLog struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Type      ActivityType `gorm:"not null;index" json:"type"`
	Message   string       `gorm:"not null" json:"message"`
	RelatedID uuid.UUID    `gorm:"type:uuid" json:"related_id"`
	CreatedAt time.Time    `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
