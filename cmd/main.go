// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_5_study_plan/internal/config"
	"go_5_study_plan/internal/handlers"
	"go_5_study_plan/internal/middleware"
	"go_5_study_plan/internal/repository"
	"go_5_study_plan/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	//　設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	// Configを読み込み
	if err := config.LoadConfig("../configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar) // 動的に変更可能なレベル変数
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}
	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		// 開発環境は色付きのテキストログ
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	log.Println("Log Config Loaded...")

	// Configファイルの読み込み完了後、アプリケーション全体のデフォルトロガーを設定
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// 3. Dependency Injection
	studentRepo := repository.NewGormStudentRepository()
	subjectRepo := repository.NewGormSubjectRepository()
	progressRepo := repository.NewGormProgressRepository()
	slotRepo := repository.NewGormSlotRepository()
	planRepo := repository.NewGormPlanRepository()
	activityRepo := repository.NewGormActivityRepository()

	// 同一生徒の割り当て処理を直列化するロック
	locker := service.NewStudentLocker()

	studentService := service.NewStudentService(db, studentRepo)
	progressService := service.NewProgressService(db, subjectRepo, progressRepo)
	slotService := service.NewSlotService(db, slotRepo, activityRepo)
	planService := service.NewPlanService(db, progressService, planRepo, activityRepo, locker, &config.Cfg)
	autofillService := service.NewAutofillService(db, slotRepo, subjectRepo, progressRepo, planRepo, activityRepo, progressService, locker, &config.Cfg)

	studentHandler := handlers.NewStudentHandler(studentService)
	progressHandler := handlers.NewProgressHandler(progressService)
	slotHandler := handlers.NewSlotHandler(slotService)
	planHandler := handlers.NewPlanHandler(planService)
	autofillHandler := handlers.NewAutofillHandler(autofillService)

	// 4. Setup Router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger)) // slogを使うカスタムロガーミドルウェア

	// CORS 設定と適用 (設定ファイルから読み込んだ値を使用)
	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/students", studentHandler.RegisterStudent) // 生徒登録 (認証不要)

		// --- Protected routes (require Student ID) ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.StudentAuthMiddleware(studentService))

			// Slot routes
			r.Route("/slots", func(r chi.Router) {
				r.Post("/", slotHandler.CreateSlot)
				r.Get("/", slotHandler.ListSlots)
				r.Get("/weekly-total", slotHandler.GetWeeklyTotal)
				r.Put("/{slot_id}", slotHandler.UpdateSlot)
				r.Delete("/{slot_id}", slotHandler.DeleteSlot)
			})

			// Plan routes
			r.Route("/plans", func(r chi.Router) {
				r.Post("/", planHandler.CreateStudyPlan)
				r.Get("/", planHandler.ListStudyPlans)
				r.Get("/{plan_id}", planHandler.GetStudyPlan)
				r.Post("/autofill", autofillHandler.AutofillTopics)
			})

			// Progress routes
			r.Get("/courses/{course_id}/progress", progressHandler.ListCourseProgress)
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		// DB接続チェック
		ctx := r.Context()
		sqlDB, err := db.DB()
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not get DB object", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		err = sqlDB.PingContext(r.Context())
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
