// internal/handlers/autofill_handler.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/service"
	"go_5_study_plan/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type AutofillHandler struct {
	service service.AutofillService
}

func NewAutofillHandler(s service.AutofillService) *AutofillHandler {
	return &AutofillHandler{service: s}
}

// AutofillTopics は日付範囲の週間スロットを学習計画で埋めます
func (h *AutofillHandler) AutofillTopics(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	var req model.AutofillRequest
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

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		webutil.HandleError(w, model.NewAppError("VALIDATION_ERROR", "開始日の形式が正しくありません。", "start_date", model.ErrInvalidInput))
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		webutil.HandleError(w, model.NewAppError("VALIDATION_ERROR", "終了日の形式が正しくありません。", "end_date", model.ErrInvalidInput))
		return
	}

	report, err := h.service.AutofillTopics(r.Context(), studentID, startDate, endDate, req.DryRun)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, report)
}
