// internal/handlers/student_handler.go
package handlers

import (
	"errors"
	"net/http"

	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/service"
	"go_5_study_plan/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type StudentHandler struct {
	service service.StudentService
}

func NewStudentHandler(s service.StudentService) *StudentHandler {
	return &StudentHandler{service: s}
}

// RegisterStudent は生徒を登録します (認証不要の公開エンドポイント)
func (h *StudentHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterStudentRequest
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

	student, err := h.service.RegisterStudent(r.Context(), &req)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, &model.StudentResponse{
		StudentID: student.StudentID,
		Name:      student.Name,
		Email:     student.Email,
		IsActive:  student.IsActive,
		CreatedAt: student.CreatedAt,
	})
}
