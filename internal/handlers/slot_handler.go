// internal/handlers/slot_handler.go
package handlers

import (
	"errors"
	"net/http"

	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/service"
	"go_5_study_plan/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type SlotHandler struct {
	service service.SlotService
}

func NewSlotHandler(s service.SlotService) *SlotHandler {
	return &SlotHandler{service: s}
}

func (h *SlotHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	var req model.CreateSlotRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, err)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			webutil.HandleError(w, webutil.NewValidationErrorResponse(validationErrors))
			return
		}
		webutil.HandleError(w, model.ErrInvalidInput)
		return
	}

	slot, err := h.service.CreateSlot(r.Context(), studentID, &req)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, slot)
}

func (h *SlotHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	slots, err := h.service.ListSlots(r.Context(), studentID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if slots == nil {
		slots = []*model.WeeklyStudySlot{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, slots)
}

func (h *SlotHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	slotID, err := uuid.Parse(chi.URLParam(r, "slot_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("VALIDATION_ERROR", "スロットIDの形式が正しくありません。", "slot_id", model.ErrInvalidInput))
		return
	}

	var req model.UpdateSlotRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, err)
		return
	}
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			webutil.HandleError(w, webutil.NewValidationErrorResponse(validationErrors))
			return
		}
		webutil.HandleError(w, model.ErrInvalidInput)
		return
	}

	slot, err := h.service.UpdateSlot(r.Context(), studentID, slotID, &req)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, slot)
}

func (h *SlotHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	slotID, err := uuid.Parse(chi.URLParam(r, "slot_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("VALIDATION_ERROR", "スロットIDの形式が正しくありません。", "slot_id", model.ErrInvalidInput))
		return
	}

	if err := h.service.DeleteSlot(r.Context(), studentID, slotID); err != nil {
		webutil.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWeeklyTotal は週間合計時間(分)を返します。参考情報のエンドポイント。
func (h *SlotHandler) GetWeeklyTotal(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	total, err := h.service.WeeklyTotalMinutes(r.Context(), studentID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, &model.WeeklyTotalResponse{
		StudentID:    studentID,
		TotalMinutes: total,
	})
}
