// internal/service/autofill_service_test.go
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
func setupTestDBAutofill(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect database for autofill service testing")
	err = db.AutoMigrate(
		&model.CourseSubject{},
		&model.SubjectProgress{},
		&model.WeeklyStudySlot{},
		&model.StudyPlan{},
		&model.StudyPlanSubject{},
		&model.ActivityLog{},
	)
	require.NoError(t, err, "failed to migrate database for autofill service testing")
	return db
}

func newAutofillServiceForTest(t *testing.T) (AutofillService, *gorm.DB) {
	db := setupTestDBAutofill(t)
	progSvc := NewProgressService(db, repository.NewGormSubjectRepository(), repository.NewGormProgressRepository())
	cfg := &config.Config{App: config.AppConfig{ReviewCapMinutes: 30}}
	svc := NewAutofillService(db,
		repository.NewGormSlotRepository(),
		repository.NewGormSubjectRepository(),
		repository.NewGormProgressRepository(),
		repository.NewGormPlanRepository(),
		repository.NewGormActivityRepository(),
		progSvc, NewStudentLocker(), cfg)
	return svc, db
}

// seedSlot は週間スロットをテストデータとして登録します
func seedSlot(t *testing.T, db *gorm.DB, studentID, courseID uuid.UUID, dayOfWeek int, startTime, endTime string) *model.WeeklyStudySlot {
	t.Helper()
	slot := &model.WeeklyStudySlot{
		SlotID:    uuid.New(),
		StudentID: studentID,
		CourseID:  courseID,
		DayOfWeek: dayOfWeek,
		StartTime: startTime,
		EndTime:   endTime,
	}
	require.NoError(t, db.Create(slot).Error)
	return slot
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// --- Test AutofillTopics ---

// 2025-01-06 は月曜日。スロット(月曜10:00-11:00)は週1回だけマッチする。
func Test_autofillService_AutofillTopics_Live(t *testing.T) {
	ctx := context.Background()
	svc, db := newAutofillServiceForTest(t)

	studentID := uuid.New()
	courseID := uuid.New()
	subjects := seedSubjects(t, db, courseID, 90, 30)
	seedSlot(t, db, studentID, courseID, 1, "10:00", "11:00")

	// 2週分 (月曜が2回) を埋める
	report, err := svc.AutofillTopics(ctx, studentID,
		mustDate(t, "2025-01-06"), mustDate(t, "2025-01-13"), false)

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.Success)
	assert.Empty(t, report.Errors)
	require.Len(t, report.FilledSlots, 2)

	// 1回目の月曜: 残り時間の多い科目Aに60分
	first := report.FilledSlots[0]
	assert.Equal(t, "2025-01-06", first.Date)
	require.Len(t, first.Subjects, 1)
	assert.Equal(t, subjects[0].SubjectID, first.Subjects[0].SubjectID)
	assert.Equal(t, 60, first.Subjects[0].AllocatedMinutes)

	// 2回目の月曜: 前週の消費が引き継がれ、未着手のBが先に30分、残り30分がAへ
	second := report.FilledSlots[1]
	assert.Equal(t, "2025-01-13", second.Date)
	require.Len(t, second.Subjects, 2)
	assert.Equal(t, subjects[1].SubjectID, second.Subjects[0].SubjectID)
	assert.Equal(t, 30, second.Subjects[0].AllocatedMinutes)
	assert.Equal(t, subjects[0].SubjectID, second.Subjects[1].SubjectID)
	assert.Equal(t, 30, second.Subjects[1].AllocatedMinutes)

	// 学習計画が2件永続化されている
	var planCount int64
	db.Model(&model.StudyPlan{}).Where("student_id = ?", studentID).Count(&planCount)
	assert.Equal(t, int64(2), planCount)

	// 進捗が全量消化されている
	var stored []model.SubjectProgress
	require.NoError(t, db.Where("student_id = ?", studentID).Find(&stored).Error)
	require.Len(t, stored, 2)
	for _, p := range stored {
		assert.True(t, p.IsCompleted)
	}
}

func Test_autofillService_AutofillTopics_DryRun(t *testing.T) {
	ctx := context.Background()
	svc, db := newAutofillServiceForTest(t)

	studentID := uuid.New()
	courseID := uuid.New()
	subjects := seedSubjects(t, db, courseID, 90, 30)
	seedSlot(t, db, studentID, courseID, 1, "10:00", "11:00")

	report, err := svc.AutofillTopics(ctx, studentID,
		mustDate(t, "2025-01-06"), mustDate(t, "2025-01-13"), true)

	require.NoError(t, err)
	assert.True(t, report.Success)
	require.Len(t, report.FilledSlots, 2)

	// ライブ実行と同じ形の結果が返る (消費の引き継ぎ込み)
	require.Len(t, report.FilledSlots[0].Subjects, 1)
	assert.Equal(t, subjects[0].SubjectID, report.FilledSlots[0].Subjects[0].SubjectID)
	require.Len(t, report.FilledSlots[1].Subjects, 2)
	assert.Equal(t, subjects[1].SubjectID, report.FilledSlots[1].Subjects[0].SubjectID)

	// しかしDBには何も書かれていない
	var planCount, progressCount int64
	db.Model(&model.StudyPlan{}).Where("student_id = ?", studentID).Count(&planCount)
	db.Model(&model.SubjectProgress{}).Where("student_id = ?", studentID).Count(&progressCount)
	assert.Equal(t, int64(0), planCount)
	assert.Equal(t, int64(0), progressCount)

	// ドライランを繰り返しても結果は変わらない (決定性)
	again, err := svc.AutofillTopics(ctx, studentID,
		mustDate(t, "2025-01-06"), mustDate(t, "2025-01-13"), true)
	require.NoError(t, err)
	assert.Equal(t, report.FilledSlots, again.FilledSlots)
}

func Test_autofillService_AutofillTopics_DryRunMatchesLive(t *testing.T) {
	ctx := context.Background()
	svc, db := newAutofillServiceForTest(t)

	studentID := uuid.New()
	courseID := uuid.New()
	seedSubjects(t, db, courseID, 90, 30)
	seedSlot(t, db, studentID, courseID, 1, "10:00", "11:00")

	start, end := mustDate(t, "2025-01-06"), mustDate(t, "2025-01-13")

	// ドライラン直後のライブ実行は同じ FilledSlots を生む
	dry, err := svc.AutofillTopics(ctx, studentID, start, end, true)
	require.NoError(t, err)
	live, err := svc.AutofillTopics(ctx, studentID, start, end, false)
	require.NoError(t, err)
	assert.Equal(t, dry.FilledSlots, live.FilledSlots)

	// 同じ範囲をもう一度実行しても合計割り当て分は増えない (残り時間の単調減少)
	again, err := svc.AutofillTopics(ctx, studentID, start, end, false)
	require.NoError(t, err)
	assert.LessOrEqual(t, totalAllocated(again), totalAllocated(live))
}

func Test_autofillService_AutofillTopics_DryRunMatchesLive_EqualDurations(t *testing.T) {
	ctx := context.Background()
	svc, db := newAutofillServiceForTest(t)

	// 未着手コース + 同じ所要時間の科目2つ。進捗行はまだ存在せず、
	// ドライランはメモリ上で、ライブ実行はDB上で行を採番する。
	// それでも順序は科目IDで決まるため結果は一致しなければならない。
	studentID := uuid.New()
	courseID := uuid.New()
	seedSubjects(t, db, courseID, 50, 50)
	seedSlot(t, db, studentID, courseID, 1, "10:00", "11:00")

	start := mustDate(t, "2025-01-06")

	dry, err := svc.AutofillTopics(ctx, studentID, start, start, true)
	require.NoError(t, err)
	live, err := svc.AutofillTopics(ctx, studentID, start, start, false)
	require.NoError(t, err)

	assert.Equal(t, dry.FilledSlots, live.FilledSlots)
	require.Len(t, live.FilledSlots, 1)
	require.Len(t, live.FilledSlots[0].Subjects, 2)
	assert.Equal(t, 50, live.FilledSlots[0].Subjects[0].AllocatedMinutes)
	assert.Equal(t, 10, live.FilledSlots[0].Subjects[1].AllocatedMinutes)
}

func totalAllocated(report *model.AutofillReport) int {
	total := 0
	for _, fs := range report.FilledSlots {
		for _, s := range fs.Subjects {
			total += s.AllocatedMinutes
		}
	}
	return total
}

func Test_autofillService_AutofillTopics_MultipleSlotsPerDay(t *testing.T) {
	ctx := context.Background()
	svc, db := newAutofillServiceForTest(t)

	studentID := uuid.New()
	courseID := uuid.New()
	seedSubjects(t, db, courseID, 60, 60)
	// 同じ月曜に2スロット。開始時刻順に処理される。
	seedSlot(t, db, studentID, courseID, 1, "10:00", "11:00")
	seedSlot(t, db, studentID, courseID, 1, "20:00", "21:00")

	report, err := svc.AutofillTopics(ctx, studentID,
		mustDate(t, "2025-01-06"), mustDate(t, "2025-01-06"), false)

	require.NoError(t, err)
	require.Len(t, report.FilledSlots, 2)
	// 朝のスロットの消費が夜のスロットに引き継がれ、別々の科目が埋まる
	require.Len(t, report.FilledSlots[0].Subjects, 1)
	require.Len(t, report.FilledSlots[1].Subjects, 1)
	assert.NotEqual(t, report.FilledSlots[0].Subjects[0].SubjectID, report.FilledSlots[1].Subjects[0].SubjectID)
}

func Test_autofillService_AutofillTopics_Errors(t *testing.T) {
	ctx := context.Background()
	svc, db := newAutofillServiceForTest(t)

	studentID := uuid.New()
	courseID := uuid.New()
	seedSubjects(t, db, courseID, 60)

	t.Run("異常系: スロット未設定", func(t *testing.T) {
		_, err := svc.AutofillTopics(ctx, studentID,
			mustDate(t, "2025-01-06"), mustDate(t, "2025-01-06"), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNoSlotsConfigured)
	})

	t.Run("異常系: 終了日が開始日より前", func(t *testing.T) {
		seedSlot(t, db, studentID, courseID, 1, "10:00", "11:00")
		_, err := svc.AutofillTopics(ctx, studentID,
			mustDate(t, "2025-01-13"), mustDate(t, "2025-01-06"), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("異常系: 日付範囲が長すぎる", func(t *testing.T) {
		_, err := svc.AutofillTopics(ctx, studentID,
			mustDate(t, "2025-01-06"), mustDate(t, "2027-01-06"), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("正常系: 範囲内にマッチする曜日がなければ nothing to fill", func(t *testing.T) {
		// スロットは月曜のみ。火曜1日だけの範囲を指定する。
		report, err := svc.AutofillTopics(ctx, studentID,
			mustDate(t, "2025-01-07"), mustDate(t, "2025-01-07"), false)
		require.NoError(t, err)
		assert.False(t, report.Success)
		assert.Equal(t, "nothing to fill", report.Message)
		assert.Empty(t, report.FilledSlots)
	})

	t.Run("正常系: 科目のないコースのスロットはソフトエラーとして報告される", func(t *testing.T) {
		otherStudent := uuid.New()
		emptyCourse := uuid.New() // 科目カタログなし
		slot := seedSlot(t, db, otherStudent, emptyCourse, 1, "10:00", "11:00")

		report, err := svc.AutofillTopics(ctx, otherStudent,
			mustDate(t, "2025-01-06"), mustDate(t, "2025-01-06"), false)

		require.NoError(t, err)
		assert.False(t, report.Success)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, slot.SlotID, report.Errors[0].SlotID)
		assert.Equal(t, "2025-01-06", report.Errors[0].Date)
	})
}

// cancelFlagContext はフラグを立てると Err() がキャンセルを返すコンテキスト。
// Done() は発火しないため、進行中のDB操作はそのまま完了する。
type cancelFlagContext struct {
	context.Context
	cancelled bool
}

func (c *cancelFlagContext) Err() error {
	if c.cancelled {
		return context.Canceled
	}
	return c.Context.Err()
}

// planRepoWithHook は計画作成の成功後にフックを呼ぶテスト用デコレータ
type planRepoWithHook struct {
	repository.PlanRepository
	afterCreate func()
}

func (r *planRepoWithHook) CreatePlan(ctx context.Context, tx *gorm.DB, plan *model.StudyPlan) error {
	err := r.PlanRepository.CreatePlan(ctx, tx, plan)
	if err == nil && r.afterCreate != nil {
		r.afterCreate()
	}
	return err
}

func Test_autofillService_AutofillTopics_CancelMidRange(t *testing.T) {
	db := setupTestDBAutofill(t)
	progSvc := NewProgressService(db, repository.NewGormSubjectRepository(), repository.NewGormProgressRepository())
	cfg := &config.Config{App: config.AppConfig{ReviewCapMinutes: 30}}

	cctx := &cancelFlagContext{Context: context.Background()}
	planRepo := &planRepoWithHook{
		PlanRepository: repository.NewGormPlanRepository(),
		afterCreate:    func() { cctx.cancelled = true },
	}
	svc := NewAutofillService(db,
		repository.NewGormSlotRepository(),
		repository.NewGormSubjectRepository(),
		repository.NewGormProgressRepository(),
		planRepo,
		repository.NewGormActivityRepository(),
		progSvc, NewStudentLocker(), cfg)

	studentID := uuid.New()
	courseID := uuid.New()
	seedSubjects(t, db, courseID, 600)
	seedSlot(t, db, studentID, courseID, 1, "10:00", "11:00") // 月曜
	seedSlot(t, db, studentID, courseID, 2, "10:00", "11:00") // 火曜

	// 月曜の計画作成後にキャンセル。火曜は日付境界で打ち切られ、月曜分だけの部分結果が返る。
	report, err := svc.AutofillTopics(cctx, studentID,
		mustDate(t, "2025-01-06"), mustDate(t, "2025-01-07"), false)

	require.NoError(t, err)
	assert.True(t, report.Success)
	require.Len(t, report.FilledSlots, 1)
	assert.Equal(t, "2025-01-06", report.FilledSlots[0].Date)

	var planCount int64
	db.Model(&model.StudyPlan{}).Where("student_id = ?", studentID).Count(&planCount)
	assert.Equal(t, int64(1), planCount)
}

func Test_autofillService_AutofillTopics_Cancellation(t *testing.T) {
	svc, db := newAutofillServiceForTest(t)

	studentID := uuid.New()
	courseID := uuid.New()
	seedSubjects(t, db, courseID, 600)
	seedSlot(t, db, studentID, courseID, 1, "10:00", "11:00")

	// 既にキャンセル済みのコンテキストでは学習計画は1件も作成されない
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AutofillTopics(ctx, studentID,
		mustDate(t, "2025-01-06"), mustDate(t, "2025-01-13"), false)
	require.Error(t, err)

	var planCount int64
	db.Model(&model.StudyPlan{}).Where("student_id = ?", studentID).Count(&planCount)
	assert.Equal(t, int64(0), planCount)
}
