// file: internals/features/learning/tasks/service/assignment_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/events"
	"akademiku_backend/internals/features/learning/tasks/dto"
	"akademiku_backend/internals/features/learning/tasks/model"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

// learningFixture builds a learning task with two knowledge items for one
// student and returns the pieces the tests poke at.
type learningFixture struct {
	db          *gorm.DB
	pub         *capturePublisher
	tasks       *TaskService
	assignments *AssignmentService
	student     helperAuth.Caller
	task        *model.TaskModel
	assignment  model.TaskAssignmentModel
	knowledge   []model.TaskKnowledgeModel
}

func newLearningFixture(t *testing.T, taskType string, deadline *time.Time) *learningFixture {
	t.Helper()
	db := newTestDB(t)
	pub := &capturePublisher{}
	tasks := NewTaskService(db, pub)
	tc := teacherCaller()
	ctx := context.Background()

	k1 := publishKnowledge(t, db, tasks, tc, "Fractures")
	k2 := publishKnowledge(t, db, tasks, tc, "Poisoning")
	student := studentCaller()

	task, err := tasks.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle:            "Module A",
		TaskType:             taskType,
		TaskDeadline:         deadline,
		KnowledgeResourceIDs: []uuid.UUID{k1, k2},
		AssigneeIDs:          []uuid.UUID{student.UserID},
	})
	require.NoError(t, err)

	_, kn, _, err := tasks.GetTask(ctx, task.TaskID)
	require.NoError(t, err)
	require.Len(t, kn, 2)

	rows := assignmentsOf(t, db, task.TaskID)
	require.Len(t, rows, 1)

	return &learningFixture{
		db:          db,
		pub:         pub,
		tasks:       tasks,
		assignments: NewAssignmentService(db, pub),
		student:     student,
		task:        task,
		assignment:  rows[0],
		knowledge:   kn,
	}
}

func TestAssignmentProgressAndAutoCompletion(t *testing.T) {
	f := newLearningFixture(t, "learning", nil)
	ctx := context.Background()

	p, err := f.assignments.Progress(ctx, f.student, f.assignment.TaskAssignmentID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Completed)
	assert.Equal(t, 2, p.Total)
	assert.Zero(t, p.Percentage)

	require.NoError(t, f.assignments.MarkKnowledgeCompleted(ctx, f.student,
		f.assignment.TaskAssignmentID, f.knowledge[0].TaskKnowledgeID))
	p, err = f.assignments.Progress(ctx, f.student, f.assignment.TaskAssignmentID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Completed)
	assert.Equal(t, 50.0, p.Percentage)
	assert.Empty(t, f.pub.named(events.AssignmentCompleted))

	require.NoError(t, f.assignments.MarkKnowledgeCompleted(ctx, f.student,
		f.assignment.TaskAssignmentID, f.knowledge[1].TaskKnowledgeID))
	a, _, err := f.assignments.GetAssignment(ctx, f.student, f.assignment.TaskAssignmentID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskAssignmentCompleted, a.TaskAssignmentStatus)
	assert.NotNil(t, a.TaskAssignmentCompletedAt)
	assert.Len(t, f.pub.named(events.AssignmentCompleted), 1)

	// re-marking is idempotent and never re-emits
	require.NoError(t, f.assignments.MarkKnowledgeCompleted(ctx, f.student,
		f.assignment.TaskAssignmentID, f.knowledge[1].TaskKnowledgeID))
	p, err = f.assignments.Progress(ctx, f.student, f.assignment.TaskAssignmentID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Completed)
	assert.Len(t, f.pub.named(events.AssignmentCompleted), 1)
}

func TestPracticeTaskNotCompletedByKnowledgeAlone(t *testing.T) {
	f := newLearningFixture(t, "practice", nil)
	ctx := context.Background()

	for _, link := range f.knowledge {
		require.NoError(t, f.assignments.MarkKnowledgeCompleted(ctx, f.student,
			f.assignment.TaskAssignmentID, link.TaskKnowledgeID))
	}

	// practice completion belongs to the grading flow, not reading marks
	a, _, err := f.assignments.GetAssignment(ctx, f.student, f.assignment.TaskAssignmentID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskAssignmentInProgress, a.TaskAssignmentStatus)
	assert.Empty(t, f.pub.named(events.AssignmentCompleted))
}

func TestMarkKnowledgeOwnershipAndScope(t *testing.T) {
	f := newLearningFixture(t, "learning", nil)
	ctx := context.Background()

	err := f.assignments.MarkKnowledgeCompleted(ctx, studentCaller(),
		f.assignment.TaskAssignmentID, f.knowledge[0].TaskKnowledgeID)
	assert.True(t, errs.Is(err, errs.CodePermissionDenied))

	err = f.assignments.MarkKnowledgeCompleted(ctx, f.student,
		f.assignment.TaskAssignmentID, uuid.New())
	assert.True(t, errs.Is(err, errs.CodeNotFound))

	err = f.assignments.MarkKnowledgeCompleted(ctx, f.student,
		uuid.New(), f.knowledge[0].TaskKnowledgeID)
	assert.True(t, errs.Is(err, errs.CodeNotFound))

	// a knowledge link from a different task is rejected
	other := newLearningFixture(t, "learning", nil)
	err = f.assignments.MarkKnowledgeCompleted(ctx, f.student,
		f.assignment.TaskAssignmentID, other.knowledge[0].TaskKnowledgeID)
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation))
}

func TestGetAssignmentVisibility(t *testing.T) {
	f := newLearningFixture(t, "learning", nil)
	ctx := context.Background()

	_, _, err := f.assignments.GetAssignment(ctx, studentCaller(), f.assignment.TaskAssignmentID)
	assert.True(t, errs.Is(err, errs.CodePermissionDenied))

	// teachers can inspect any assignment
	_, task, err := f.assignments.GetAssignment(ctx, teacherCaller(), f.assignment.TaskAssignmentID)
	require.NoError(t, err)
	assert.Equal(t, f.task.TaskID, task.TaskID)

	rows, total, err := f.assignments.ListForAssignee(ctx, f.student.UserID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
}

func TestEffectiveStatusOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	inProgress := &model.TaskAssignmentModel{TaskAssignmentStatus: model.TaskAssignmentInProgress}
	completed := &model.TaskAssignmentModel{TaskAssignmentStatus: model.TaskAssignmentCompleted}

	assert.Equal(t, model.TaskAssignmentOverdue,
		EffectiveStatus(inProgress, &model.TaskModel{TaskDeadline: &past}, now))
	assert.Equal(t, model.TaskAssignmentInProgress,
		EffectiveStatus(inProgress, &model.TaskModel{TaskDeadline: &future}, now))
	assert.Equal(t, model.TaskAssignmentInProgress,
		EffectiveStatus(inProgress, &model.TaskModel{}, now))

	// completion wins over the deadline
	assert.Equal(t, model.TaskAssignmentCompleted,
		EffectiveStatus(completed, &model.TaskModel{TaskDeadline: &past}, now))

	// exam tasks without a deadline fall due when the window closes
	assert.Equal(t, model.TaskAssignmentOverdue,
		EffectiveStatus(inProgress, &model.TaskModel{TaskExamEndAt: &past}, now))
	assert.Equal(t, model.TaskAssignmentInProgress,
		EffectiveStatus(inProgress, &model.TaskModel{TaskExamEndAt: &future}, now))
	assert.Equal(t, model.TaskAssignmentCompleted,
		EffectiveStatus(completed, &model.TaskModel{TaskExamEndAt: &past}, now))
}

func TestAssignmentsIndependentBetweenStudents(t *testing.T) {
	db := newTestDB(t)
	pub := &capturePublisher{}
	tasks := NewTaskService(db, pub)
	assignments := NewAssignmentService(db, pub)
	tc := teacherCaller()
	ctx := context.Background()

	kRID := publishKnowledge(t, db, tasks, tc, "Shared")
	alpha, beta := studentCaller(), studentCaller()

	task, err := tasks.CreateTask(ctx, tc, &dto.CreateTaskRequest{
		TaskTitle:            "Shared task",
		TaskType:             "learning",
		KnowledgeResourceIDs: []uuid.UUID{kRID},
		AssigneeIDs:          []uuid.UUID{alpha.UserID, beta.UserID},
	})
	require.NoError(t, err)

	rows := assignmentsOf(t, db, task.TaskID)
	require.Len(t, rows, 2)
	byAssignee := map[uuid.UUID]model.TaskAssignmentModel{}
	for _, r := range rows {
		byAssignee[r.TaskAssignmentAssigneeID] = r
	}

	_, kn, _, err := tasks.GetTask(ctx, task.TaskID)
	require.NoError(t, err)
	require.NoError(t, assignments.MarkKnowledgeCompleted(ctx, alpha,
		byAssignee[alpha.UserID].TaskAssignmentID, kn[0].TaskKnowledgeID))

	a, _, err := assignments.GetAssignment(ctx, alpha, byAssignee[alpha.UserID].TaskAssignmentID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskAssignmentCompleted, a.TaskAssignmentStatus)

	b, _, err := assignments.GetAssignment(ctx, beta, byAssignee[beta.UserID].TaskAssignmentID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskAssignmentInProgress, b.TaskAssignmentStatus)
}
