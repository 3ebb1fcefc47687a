// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "StudyPlanService"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort = ":8080"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"

	// 復習パスの1科目あたり割り当て上限(分)
	DefaultReviewCapMinutes = 30
)
