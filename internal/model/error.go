// internal/model/error.go
package model

import "errors"

// アプリケーション固有のエラー
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInternalServer  = errors.New("internal server error")
	ErrForbidden       = errors.New("forbidden")
	ErrStudentNotFound = errors.New("student not found or invalid")
	ErrConflict        = errors.New("resource conflict") // 週間スロットの重複エラー用

	// 配分エンジン固有のエラー
	ErrNoSubjectsAvailable = errors.New("no subjects available for allocation")
	ErrNoSlotsConfigured   = errors.New("no weekly slots configured")
)

// AppError はエラーコード・メッセージ・対象フィールドを持つアプリケーションエラーです。
// 根本原因のsentinelエラー(ErrNotFoundなど)をラップし、HTTPステータス判定に使います。
type AppError struct {
	Code    string // 例: "VALIDATION_ERROR"
	Message string // クライアント向けメッセージ
	Field   string // バリデーション対象フィールド (任意)
	Err     error  // ラップされた根本原因
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Detail はAPIレスポンス用のエラー詳細を返します
func (e *AppError) Detail() ErrorDetail {
	return ErrorDetail{
		Code:    e.Code,
		Message: e.Message,
		Field:   e.Field,
	}
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Err:     err,
	}
}

// ErrorDetail はAPIエラーレスポンスの中身
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse はAPIエラーレスポンスの構造体
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
