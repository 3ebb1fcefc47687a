// internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"

	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/webutil"

	"github.com/google/uuid"
)

// StudentDirectory は生徒の存在確認を提供します (service.StudentService が満たす)
type StudentDirectory interface {
	GetStudent(ctx context.Context, studentID uuid.UUID) (*model.Student, error)
}

// StudentAuthMiddleware は X-Student-ID ヘッダーを検証するミドルウェアです。
// IDの形式チェックに加えて、生徒ディレクトリでの存在確認を行います。
func StudentAuthMiddleware(directory StudentDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			studentIDStr := r.Header.Get("X-Student-ID")
			if studentIDStr == "" {
				logger.Warn("Auth failed: X-Student-ID header missing")
				appErr := model.NewAppError("UNAUTHORIZED", "X-Student-IDヘッダーが必要です。", "", model.ErrForbidden)
				webutil.HandleError(w, appErr)
				return
			}

			studentID, err := uuid.Parse(studentIDStr)
			if err != nil {
				logger.Warn("Auth failed: Invalid X-Student-ID format", "value", studentIDStr)
				appErr := model.NewAppError("UNAUTHORIZED", "X-Student-IDの形式が正しくありません。", "", model.ErrForbidden)
				webutil.HandleError(w, appErr)
				return
			}

			if _, err := directory.GetStudent(r.Context(), studentID); err != nil {
				logger.Warn("Auth failed: Student not found or inactive", "student_id", studentID)
				appErr := model.NewAppError("UNAUTHORIZED", "生徒が見つかりません。", "", model.ErrStudentNotFound)
				webutil.HandleError(w, appErr)
				return
			}

			// コンテキストに生徒IDをセット
			ctx := context.WithValue(r.Context(), model.StudentIDKey, studentID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetStudentIDFromContext はコンテキストから生徒IDを取得します
func GetStudentIDFromContext(ctx context.Context) (uuid.UUID, error) {
	value, ok := ctx.Value(model.StudentIDKey).(uuid.UUID)
	if !ok {
		// ミドルウェアが正しく適用されていない場合の内部エラー
		return uuid.Nil, model.NewAppError("INTERNAL_SERVER_ERROR", "コンテキストから生徒情報を取得できませんでした。", "", model.ErrInternalServer)
	}
	return value, nil
}
