// internal/service/plan_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"go_5_study_plan/internal/config"
	"go_5_study_plan/internal/model"
	"go_5_study_plan/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- テストヘルパー関数 (インメモリDBセットアップ) ---
func setupTestDBPlan(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect database for plan service testing")
	err = db.AutoMigrate(
		&model.CourseSubject{},
		&model.SubjectProgress{},
		&model.StudyPlan{},
		&model.StudyPlanSubject{},
		&model.ActivityLog{},
	)
	require.NoError(t, err, "failed to migrate database for plan service testing")
	return db
}

func newPlanServiceForTest(t *testing.T) (PlanService, *gorm.DB) {
	db := setupTestDBPlan(t)
	progSvc := NewProgressService(db, repository.NewGormSubjectRepository(), repository.NewGormProgressRepository())
	cfg := &config.Config{App: config.AppConfig{ReviewCapMinutes: 30}}
	svc := NewPlanService(db, progSvc, repository.NewGormPlanRepository(), repository.NewGormActivityRepository(), NewStudentLocker(), cfg)
	return svc, db
}

// --- Test CreateStudyPlan ---
func Test_planService_CreateStudyPlan(t *testing.T) {
	ctx := context.Background()
	svc, db := newPlanServiceForTest(t)

	t.Run("正常系: 配分結果と進捗更新が永続化される", func(t *testing.T) {
		studentID := uuid.New()
		courseID := uuid.New()
		subjects := seedSubjects(t, db, courseID, 90, 30)

		// 2時間の枠: 90分の科目が先に全量、残り30分がもう一方へ
		resp, err := svc.CreateStudyPlan(ctx, studentID, &model.CreateStudyPlanRequest{
			CourseID:  courseID,
			Date:      "2025-05-12",
			StartTime: "10:00",
			EndTime:   "12:00",
		})

		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Len(t, resp.AllocatedSubjects, 2)
		assert.Equal(t, subjects[0].SubjectID, resp.AllocatedSubjects[0].SubjectID)
		assert.Equal(t, 90, resp.AllocatedSubjects[0].AllocatedMinutes)
		assert.Equal(t, subjects[1].SubjectID, resp.AllocatedSubjects[1].SubjectID)
		assert.Equal(t, 30, resp.AllocatedSubjects[1].AllocatedMinutes)

		// StudyPlanSubject 行が作成されている
		var planSubjectCount int64
		db.Model(&model.StudyPlanSubject{}).Where("study_plan_id = ?", resp.Plan.PlanID).Count(&planSubjectCount)
		assert.Equal(t, int64(2), planSubjectCount)

		// 進捗が反映されている
		var stored []model.SubjectProgress
		require.NoError(t, db.Where("student_id = ?", studentID).Find(&stored).Error)
		for _, p := range stored {
			assert.True(t, p.IsCompleted)
			assert.Equal(t, 0, p.RemainingMinutes)
		}
	})

	t.Run("正常系: 時間枠が足りない場合は残り分でクランプされる", func(t *testing.T) {
		studentID := uuid.New()
		courseID := uuid.New()
		seedSubjects(t, db, courseID, 90)

		resp, err := svc.CreateStudyPlan(ctx, studentID, &model.CreateStudyPlanRequest{
			CourseID:  courseID,
			Date:      "2025-05-12",
			StartTime: "10:00",
			EndTime:   "11:00",
		})

		require.NoError(t, err)
		require.Len(t, resp.AllocatedSubjects, 1)
		assert.Equal(t, 60, resp.AllocatedSubjects[0].AllocatedMinutes)

		var stored model.SubjectProgress
		require.NoError(t, db.First(&stored, "student_id = ?", studentID).Error)
		assert.Equal(t, 60, stored.CompletedMinutes)
		assert.Equal(t, 30, stored.RemainingMinutes)
		assert.False(t, stored.IsCompleted)
	})

	t.Run("正常系: 全科目完了済みなら復習として配分される", func(t *testing.T) {
		studentID := uuid.New()
		courseID := uuid.New()
		seedSubjects(t, db, courseID, 60)

		// 1回目で完了させる
		_, err := svc.CreateStudyPlan(ctx, studentID, &model.CreateStudyPlanRequest{
			CourseID: courseID, Date: "2025-05-12", StartTime: "10:00", EndTime: "11:00",
		})
		require.NoError(t, err)

		// 2回目は復習パス (上限30分)
		resp, err := svc.CreateStudyPlan(ctx, studentID, &model.CreateStudyPlanRequest{
			CourseID: courseID, Date: "2025-05-13", StartTime: "10:00", EndTime: "11:00",
		})
		require.NoError(t, err)
		require.Len(t, resp.AllocatedSubjects, 1)
		assert.True(t, resp.AllocatedSubjects[0].IsReview)
		assert.Equal(t, 30, resp.AllocatedSubjects[0].AllocatedMinutes)

		// 分カウンタは増えない
		var stored model.SubjectProgress
		require.NoError(t, db.First(&stored, "student_id = ?", studentID).Error)
		assert.Equal(t, 60, stored.CompletedMinutes)
	})

	t.Run("異常系: 科目のないコース", func(t *testing.T) {
		_, err := svc.CreateStudyPlan(ctx, uuid.New(), &model.CreateStudyPlanRequest{
			CourseID: uuid.New(), Date: "2025-05-12", StartTime: "10:00", EndTime: "11:00",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("異常系: 日付フォーマット不正", func(t *testing.T) {
		_, err := svc.CreateStudyPlan(ctx, uuid.New(), &model.CreateStudyPlanRequest{
			CourseID: uuid.New(), Date: "12/05/2025", StartTime: "10:00", EndTime: "11:00",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("異常系: 開始時刻が終了時刻以降", func(t *testing.T) {
		_, err := svc.CreateStudyPlan(ctx, uuid.New(), &model.CreateStudyPlanRequest{
			CourseID: uuid.New(), Date: "2025-05-12", StartTime: "11:00", EndTime: "10:00",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

// --- Test GetStudyPlan / ListStudyPlans ---
func Test_planService_GetAndList(t *testing.T) {
	ctx := context.Background()
	svc, db := newPlanServiceForTest(t)

	studentID := uuid.New()
	courseID := uuid.New()
	seedSubjects(t, db, courseID, 120)

	created, err := svc.CreateStudyPlan(ctx, studentID, &model.CreateStudyPlanRequest{
		CourseID: courseID, Date: "2025-06-02", StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)
	_, err = svc.CreateStudyPlan(ctx, studentID, &model.CreateStudyPlanRequest{
		CourseID: courseID, Date: "2025-06-09", StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)

	t.Run("正常系: IDで取得 (割り当て行もPreloadされる)", func(t *testing.T) {
		plan, err := svc.GetStudyPlan(ctx, studentID, created.Plan.PlanID)
		require.NoError(t, err)
		assert.Equal(t, created.Plan.PlanID, plan.PlanID)
		assert.Len(t, plan.Subjects, 1)
	})

	t.Run("異常系: 他の生徒の計画は見えない", func(t *testing.T) {
		_, err := svc.GetStudyPlan(ctx, uuid.New(), created.Plan.PlanID)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("正常系: 期間で絞り込める", func(t *testing.T) {
		from, _ := time.Parse("2006-01-02", "2025-06-01")
		to, _ := time.Parse("2006-01-02", "2025-06-07")
		plans, err := svc.ListStudyPlans(ctx, studentID, from, to)
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, created.Plan.PlanID, plans[0].PlanID)
	})
}
