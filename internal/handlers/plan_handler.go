// internal/handlers/plan_handler.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/service"
	"go_5_study_plan/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type PlanHandler struct {
	service service.PlanService
}

func NewPlanHandler(s service.PlanService) *PlanHandler {
	return &PlanHandler{service: s}
}

// CreateStudyPlan は1回分の学習計画を作成し、科目を自動配分します
func (h *PlanHandler) CreateStudyPlan(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	var req model.CreateStudyPlanRequest
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

	resp, err := h.service.CreateStudyPlan(r.Context(), studentID, &req)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *PlanHandler) GetStudyPlan(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	planID, err := uuid.Parse(chi.URLParam(r, "plan_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("VALIDATION_ERROR", "計画IDの形式が正しくありません。", "plan_id", model.ErrInvalidInput))
		return
	}

	plan, err := h.service.GetStudyPlan(r.Context(), studentID, planID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, plan)
}

// ListStudyPlans は ?from=YYYY-MM-DD&to=YYYY-MM-DD の範囲の計画を返します
func (h *PlanHandler) ListStudyPlans(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("VALIDATION_ERROR", "fromの形式が正しくありません。", "from", model.ErrInvalidInput))
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("VALIDATION_ERROR", "toの形式が正しくありません。", "to", model.ErrInvalidInput))
		return
	}

	plans, err := h.service.ListStudyPlans(r.Context(), studentID, from, to)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if plans == nil {
		plans = []*model.StudyPlan{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, plans)
}
