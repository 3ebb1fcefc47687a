// internal/handlers/progress_handler.go
package handlers

import (
	"net/http"

	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/service"
	"go_5_study_plan/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ProgressHandler struct {
	service service.ProgressService
}

func NewProgressHandler(s service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: s}
}

// ListCourseProgress はコース内の科目ごとの進捗一覧を返します
func (h *ProgressHandler) ListCourseProgress(w http.ResponseWriter, r *http.Request) {
	studentID, err := middleware.GetStudentIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	courseID, err := uuid.Parse(chi.URLParam(r, "course_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("VALIDATION_ERROR", "コースIDの形式が正しくありません。", "course_id", model.ErrInvalidInput))
		return
	}

	progresses, err := h.service.ListCourseProgress(r.Context(), studentID, courseID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if progresses == nil {
		progresses = []*model.SubjectProgressResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, progresses)
}
