// internal/model/autofill.go
package model

import (
	"github.com/google/uuid"
)

// AutofillRequest はオートフィルAPIのリクエストDTO
type AutofillRequest struct {
	StartDate string `json:"start_date" validate:"required"` // "2006-01-02"
	EndDate   string `json:"end_date" validate:"required"`   // "2006-01-02"
	DryRun    bool   `json:"dry_run"`
}

// FilledSlotSubject はオートフィルで1科目に割り当てた結果
type FilledSlotSubject struct {
	SubjectID        uuid.UUID `json:"subject_id"`
	Name             string    `json:"name"`
	AllocatedMinutes int       `json:"allocated_minutes"`
	IsReview         bool      `json:"is_review"`
}

// FilledSlot は1スロット分の割り当て結果
type FilledSlot struct {
	Date     string              `json:"date"` // "2006-01-02"
	SlotID   uuid.UUID           `json:"slot_id"`
	CourseID uuid.UUID           `json:"course_id"`
	Subjects []FilledSlotSubject `json:"subjects"`
}

// AutofillError はスロット単位の失敗。バッチ全体は中断しない (ソフトエラー)。
type AutofillError struct {
	Date    string    `json:"date"`
	SlotID  uuid.UUID `json:"slot_id"`
	Message string    `json:"message"`
}

// AutofillReport はオートフィルAPIのレスポンスDTO
type AutofillReport struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message,omitempty"`
	FilledSlots []FilledSlot    `json:"filled_slots"`
	Errors      []AutofillError `json:"errors,omitempty"`
}
