// file: internals/features/learning/tasks/service/task_service_test.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"akademiku_backend/internals/constants"
	database "akademiku_backend/internals/databases"
	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/events"
	kdto "akademiku_backend/internals/features/learning/knowledge/dto"
	kservice "akademiku_backend/internals/features/learning/knowledge/service"
	qdto "akademiku_backend/internals/features/learning/questions/dto"
	qservice "akademiku_backend/internals/features/learning/questions/service"
	qzdto "akademiku_backend/internals/features/learning/quizzes/dto"
	qzservice "akademiku_backend/internals/features/learning/quizzes/service"
	"akademiku_backend/internals/features/learning/tasks/dto"
	"akademiku_backend/internals/features/learning/tasks/model"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

/* =========================================================
   shared fixtures
========================================================= */

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func teacherCaller() helperAuth.Caller {
	return helperAuth.Caller{UserID: uuid.New(), Role: constants.RoleTeacher}
}

func studentCaller() helperAuth.Caller {
	return helperAuth.Caller{UserID: uuid.New(), Role: constants.RoleStudent}
}

// capturePublisher records emitted events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) named(name string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, ev := range p.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// publishKnowledge authors and publishes one knowledge article, returning its
// logical resource id.
func publishKnowledge(t *testing.T, db *gorm.DB, tasks *TaskService, caller helperAuth.Caller, title string) uuid.UUID {
	t.Helper()
	ks := kservice.NewKnowledgeService(db, tasks)
	ctx := context.Background()
	k, err := ks.CreateDraft(ctx, caller, &kdto.CreateKnowledgeRequest{
		KnowledgeTitle: title,
		KnowledgeType:  "other",
		KnowledgeBody:  "wash hands for twenty seconds",
	})
	require.NoError(t, err)
	_, err = ks.Publish(ctx, caller, k.KnowledgeID)
	require.NoError(t, err)
	return k.KnowledgeResourceID
}

// publishQuiz authors a quiz of n single-choice questions worth scoreEach and
// publishes everything. Returns the quiz resource id.
func publishQuiz(t *testing.T, db *gorm.DB, tasks *TaskService, caller helperAuth.Caller, n int, scoreEach float64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	qz := qzservice.NewQuizService(db, tasks)
	qs := qservice.NewQuestionService(db, qz)

	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		score := scoreEach
		q, err := qs.CreateDraft(ctx, caller, &qdto.CreateQuestionRequest{
			QuestionType:    "single",
			QuestionStem:    fmt.Sprintf("question %d", i+1),
			QuestionOptions: datatypes.JSON(`[{"key":"a","text":"yes"},{"key":"b","text":"no"}]`),
			QuestionAnswer:  datatypes.JSON(`"a"`),
			QuestionScore:   &score,
		})
		require.NoError(t, err)
		_, err = qs.Publish(ctx, caller, q.QuestionID)
		require.NoError(t, err)
		ids = append(ids, q.QuestionResourceID)
	}

	quiz, err := qz.CreateDraft(ctx, caller, &qzdto.CreateQuizRequest{
		QuizTitle:               "drill",
		QuizQuestionResourceIDs: ids,
	})
	require.NoError(t, err)
	_, err = qz.Publish(ctx, caller, quiz.QuizID)
	require.NoError(t, err)
	return quiz.QuizResourceID
}

func assignmentsOf(t *testing.T, db *gorm.DB, taskID uuid.UUID) []model.TaskAssignmentModel {
	t.Helper()
	var rows []model.TaskAssignmentModel
	require.NoError(t, db.Where("task_assignment_task_id = ?", taskID).
		Order("task_assignment_created_at ASC").Find(&rows).Error)
	return rows
}

/* =========================================================
   tests
========================================================= */

func TestCreateTaskSnapshotsAndFansOut(t *testing.T) {
	db := newTestDB(t)
	pub := &capturePublisher{}
	svc := NewTaskService(db, pub)
	tc := teacherCaller()
	ctx := context.Background()

	kRID := publishKnowledge(t, db, svc, tc, "Burns")
	qRID := publishQuiz(t, db, svc, tc, 2, 3)
	s1, s2 := uuid.New(), uuid.New()

	task, err := svc.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle:            "Week 1",
		TaskType:             "learning",
		KnowledgeResourceIDs: []uuid.UUID{kRID},
		QuizResourceIDs:      []uuid.UUID{qRID},
		AssigneeIDs:          []uuid.UUID{s1, s2},
	})
	require.NoError(t, err)

	_, kn, qz, err := svc.GetTask(ctx, task.TaskID)
	require.NoError(t, err)
	require.Len(t, kn, 1)
	require.Len(t, qz, 1)

	ksnap, err := kn[0].Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Burns", ksnap.Title)
	assert.Equal(t, 1, ksnap.VersionNumber)

	qsnap, err := qz[0].Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, qsnap.QuestionCount)
	assert.Equal(t, 6.0, qsnap.TotalScore)
	assert.False(t, qsnap.HasSubjective)

	assert.Len(t, assignmentsOf(t, db, task.TaskID), 2)
	assert.Len(t, pub.named(events.AssignmentCreated), 2)
}

func TestTaskSnapshotSurvivesLaterPublish(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, &capturePublisher{})
	tc := teacherCaller()
	ctx := context.Background()

	ks := kservice.NewKnowledgeService(db, svc)
	v1, err := ks.CreateDraft(ctx, tc, &kdto.CreateKnowledgeRequest{
		KnowledgeTitle: "Old title",
		KnowledgeType:  "other",
		KnowledgeBody:  "v1 body",
	})
	require.NoError(t, err)
	_, err = ks.Publish(ctx, tc, v1.KnowledgeID)
	require.NoError(t, err)

	task, err := svc.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle:            "Pinned",
		TaskType:             "learning",
		KnowledgeResourceIDs: []uuid.UUID{v1.KnowledgeResourceID},
		AssigneeIDs:          []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)

	// publish a second version after the task was created
	v2, err := ks.CreateRevision(ctx, tc, v1.KnowledgeResourceID)
	require.NoError(t, err)
	newTitle := "New title"
	_, err = ks.UpdateDraft(ctx, tc, v2.KnowledgeID, &kdto.UpdateKnowledgeRequest{KnowledgeTitle: &newTitle})
	require.NoError(t, err)
	_, err = ks.Publish(ctx, tc, v2.KnowledgeID)
	require.NoError(t, err)

	cur, err := ks.GetCurrent(ctx, v1.KnowledgeResourceID)
	require.NoError(t, err)
	assert.Equal(t, "New title", cur.KnowledgeTitle)

	// the task still serves exactly what it pinned
	_, kn, _, err := svc.GetTask(ctx, task.TaskID)
	require.NoError(t, err)
	require.Len(t, kn, 1)
	snap, err := kn[0].Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Old title", snap.Title)
	assert.Equal(t, 1, snap.VersionNumber)
}

func TestCreateTaskValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, &capturePublisher{})
	tc := teacherCaller()
	ctx := context.Background()
	kRID := publishKnowledge(t, db, svc, tc, "Any")
	assignee := []uuid.UUID{uuid.New()}

	_, err := svc.CreateTask(ctx, studentCaller(), &dto.CreateTaskRequest{
		TaskTitle: "nope", TaskType: "learning",
		KnowledgeResourceIDs: []uuid.UUID{kRID}, AssigneeIDs: assignee,
	})
	assert.True(t, errs.Is(err, errs.CodePermissionDenied))

	_, err = svc.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle: "nope", TaskType: "homework",
		KnowledgeResourceIDs: []uuid.UUID{kRID}, AssigneeIDs: assignee,
	})
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation))

	_, err = svc.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle: "nope", TaskType: "exam",
		KnowledgeResourceIDs: []uuid.UUID{kRID}, AssigneeIDs: assignee,
	})
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation), "exam without window")

	_, err = svc.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle: "nope", TaskType: "learning", AssigneeIDs: assignee,
	})
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation), "no content")
}

func TestCreateTaskRejectsUnpublishedResource(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, &capturePublisher{})
	tc := teacherCaller()
	ctx := context.Background()

	ks := kservice.NewKnowledgeService(db, svc)
	draft, err := ks.CreateDraft(ctx, tc, &kdto.CreateKnowledgeRequest{
		KnowledgeTitle: "Never published",
		KnowledgeType:  "other",
	})
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle:            "broken",
		TaskType:             "learning",
		KnowledgeResourceIDs: []uuid.UUID{draft.KnowledgeResourceID},
		AssigneeIDs:          []uuid.UUID{uuid.New()},
	})
	require.True(t, errs.Is(err, errs.CodeNotFound))

	// the whole transaction rolled back, no orphan task rows
	var n int64
	require.NoError(t, db.Model(&model.TaskModel{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateTaskDuplicateAssignee(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, &capturePublisher{})
	tc := teacherCaller()
	kRID := publishKnowledge(t, db, svc, tc, "Any")

	dup := uuid.New()
	_, err := svc.CreateTask(context.Background(), tc, &dto.CreateTaskRequest{
		TaskTitle:            "twice",
		TaskType:             "learning",
		KnowledgeResourceIDs: []uuid.UUID{kRID},
		AssigneeIDs:          []uuid.UUID{dup, dup},
	})
	require.True(t, errs.Is(err, errs.CodeInvalidOperation))
}

func TestCloseAndDeleteTask(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, &capturePublisher{})
	tc := teacherCaller()
	ctx := context.Background()
	kRID := publishKnowledge(t, db, svc, tc, "Guarded")

	task, err := svc.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle:            "short lived",
		TaskType:             "learning",
		KnowledgeResourceIDs: []uuid.UUID{kRID},
		AssigneeIDs:          []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)

	require.True(t, errs.Is(svc.CloseTask(ctx, studentCaller(), task.TaskID), errs.CodePermissionDenied))
	require.NoError(t, svc.CloseTask(ctx, tc, task.TaskID))
	got, _, _, err := svc.GetTask(ctx, task.TaskID)
	require.NoError(t, err)
	assert.True(t, got.TaskClosed)

	require.NoError(t, svc.DeleteTask(ctx, tc, task.TaskID))
	_, _, _, err = svc.GetTask(ctx, task.TaskID)
	assert.True(t, errs.Is(err, errs.CodeNotFound))

	// snapshot link rows outlive the soft delete, so the guard holds
	ref, err := svc.KnowledgeReferenced(db, kRID)
	require.NoError(t, err)
	assert.True(t, ref)

	assert.True(t, errs.Is(svc.DeleteTask(ctx, tc, task.TaskID), errs.CodeNotFound))
}

func TestReferenceGuardsCountAnyVersion(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(db, &capturePublisher{})
	tc := teacherCaller()
	ctx := context.Background()

	kRID := publishKnowledge(t, db, svc, tc, "Tracked")
	qRID := publishQuiz(t, db, svc, tc, 1, 1)

	ref, err := svc.KnowledgeReferenced(db, kRID)
	require.NoError(t, err)
	assert.False(t, ref)

	_, err = svc.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle:            "holds both",
		TaskType:             "practice",
		KnowledgeResourceIDs: []uuid.UUID{kRID},
		QuizResourceIDs:      []uuid.UUID{qRID},
		AssigneeIDs:          []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)

	ref, err = svc.KnowledgeReferenced(db, kRID)
	require.NoError(t, err)
	assert.True(t, ref)
	ref, err = svc.QuizReferenced(db, qRID)
	require.NoError(t, err)
	assert.True(t, ref)
	ref, err = svc.QuizReferenced(db, uuid.New())
	require.NoError(t, err)
	assert.False(t, ref)
}
