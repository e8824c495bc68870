// file: internals/features/learning/submissions/service/submission_service_test.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

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
	qdto "akademiku_backend/internals/features/learning/questions/dto"
	qservice "akademiku_backend/internals/features/learning/questions/service"
	qzdto "akademiku_backend/internals/features/learning/quizzes/dto"
	qzservice "akademiku_backend/internals/features/learning/quizzes/service"
	"akademiku_backend/internals/features/learning/submissions/model"
	tdto "akademiku_backend/internals/features/learning/tasks/dto"
	tmodel "akademiku_backend/internals/features/learning/tasks/model"
	tservice "akademiku_backend/internals/features/learning/tasks/service"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

/* =========================================================
   fixtures
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

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) completions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Name == events.AssignmentCompleted {
			n++
		}
	}
	return n
}

// attemptFixture is a ready-to-take quiz task: one student, one quiz link.
type attemptFixture struct {
	db            *gorm.DB
	pub           *capturePublisher
	svc           *SubmissionService
	teacher       helperAuth.Caller
	student       helperAuth.Caller
	task          *tmodel.TaskModel
	assignmentID  uuid.UUID
	taskQuizID    uuid.UUID
	objectiveRIDs []uuid.UUID // single-choice, answer "a", 25 points each
	subjectiveRID uuid.UUID   // zero when the quiz has no short question
}

type fixtureOpts struct {
	taskType   string
	subjective bool
	examStart  *time.Time
	examEnd    *time.Time
	objectiveN int
}

func newAttemptFixture(t *testing.T, opts fixtureOpts) *attemptFixture {
	t.Helper()
	db := newTestDB(t)
	pub := &capturePublisher{}
	tasks := tservice.NewTaskService(db, pub)
	assignments := tservice.NewAssignmentService(db, pub)
	ctx := context.Background()

	teacher := helperAuth.Caller{UserID: uuid.New(), Role: constants.RoleTeacher}
	student := helperAuth.Caller{UserID: uuid.New(), Role: constants.RoleStudent}

	qz := qzservice.NewQuizService(db, tasks)
	qs := qservice.NewQuestionService(db, qz)

	score := 25.0
	var rids []uuid.UUID
	for i := 0; i < opts.objectiveN; i++ {
		q, err := qs.CreateDraft(ctx, teacher, &qdto.CreateQuestionRequest{
			QuestionType:    "single",
			QuestionStem:    fmt.Sprintf("objective %d", i+1),
			QuestionOptions: datatypes.JSON(`[{"key":"a","text":"right"},{"key":"b","text":"wrong"}]`),
			QuestionAnswer:  datatypes.JSON(`"a"`),
			QuestionScore:   &score,
		})
		require.NoError(t, err)
		_, err = qs.Publish(ctx, teacher, q.QuestionID)
		require.NoError(t, err)
		rids = append(rids, q.QuestionResourceID)
	}

	var subjectiveRID uuid.UUID
	composition := append([]uuid.UUID(nil), rids...)
	if opts.subjective {
		q, err := qs.CreateDraft(ctx, teacher, &qdto.CreateQuestionRequest{
			QuestionType:  "short",
			QuestionStem:  "explain your reasoning",
			QuestionScore: &score,
		})
		require.NoError(t, err)
		_, err = qs.Publish(ctx, teacher, q.QuestionID)
		require.NoError(t, err)
		subjectiveRID = q.QuestionResourceID
		composition = append(composition, subjectiveRID)
	}

	quiz, err := qz.CreateDraft(ctx, teacher, &qzdto.CreateQuizRequest{
		QuizTitle:               "graded drill",
		QuizQuestionResourceIDs: composition,
	})
	require.NoError(t, err)
	_, err = qz.Publish(ctx, teacher, quiz.QuizID)
	require.NoError(t, err)

	task, err := tasks.CreateTask(ctx, teacher, &tdto.CreateTaskRequest{
		TaskTitle:       "quiz task",
		TaskType:        opts.taskType,
		TaskExamStartAt: opts.examStart,
		TaskExamEndAt:   opts.examEnd,
		QuizResourceIDs: []uuid.UUID{quiz.QuizResourceID},
		AssigneeIDs:     []uuid.UUID{student.UserID},
	})
	require.NoError(t, err)

	var assignment tmodel.TaskAssignmentModel
	require.NoError(t, db.First(&assignment, "task_assignment_task_id = ?", task.TaskID).Error)
	var link tmodel.TaskQuizModel
	require.NoError(t, db.First(&link, "task_quiz_task_id = ?", task.TaskID).Error)

	return &attemptFixture{
		db:            db,
		pub:           pub,
		svc:           NewSubmissionService(db, assignments),
		teacher:       teacher,
		student:       student,
		task:          task,
		assignmentID:  assignment.TaskAssignmentID,
		taskQuizID:    link.TaskQuizID,
		objectiveRIDs: rids,
		subjectiveRID: subjectiveRID,
	}
}

func answerKey(key string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf("%q", key))
}

/* =========================================================
   objective auto-grading
========================================================= */

func TestSubmitAutoGradesObjectiveQuiz(t *testing.T) {
	f := newAttemptFixture(t, fixtureOpts{taskType: "practice", objectiveN: 4})
	ctx := context.Background()

	sub, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.SubmissionAttemptNumber)
	assert.Equal(t, model.SubmissionInProgress, sub.SubmissionStatus)

	// three right, one wrong
	for _, rid := range f.objectiveRIDs[:3] {
		_, err := f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, rid, answerKey("a"))
		require.NoError(t, err)
	}
	_, err = f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, f.objectiveRIDs[3], answerKey("b"))
	require.NoError(t, err)

	graded, err := f.svc.Submit(ctx, f.student, sub.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionGraded, graded.SubmissionStatus)
	assert.Equal(t, 75.0, graded.SubmissionTotalScore)
	assert.NotNil(t, graded.SubmissionSubmittedAt)
	assert.NotNil(t, graded.SubmissionGradedAt)

	_, answers, err := f.svc.GetSubmission(ctx, f.student, sub.SubmissionID)
	require.NoError(t, err)
	require.Len(t, answers, 4)
	for _, a := range answers {
		require.NotNil(t, a.AnswerIsCorrect)
		require.NotNil(t, a.AnswerScore)
	}

	// full auto-grade completes the assignment exactly once
	assert.Equal(t, 1, f.pub.completions())
}

func TestAnswerMatchingNormalizesKeys(t *testing.T) {
	f := newAttemptFixture(t, fixtureOpts{taskType: "practice", objectiveN: 1})
	ctx := context.Background()

	sub, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	require.NoError(t, err)
	_, err = f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, f.objectiveRIDs[0], answerKey("  A "))
	require.NoError(t, err)

	graded, err := f.svc.Submit(ctx, f.student, sub.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, graded.SubmissionTotalScore)
}

func TestAttemptNumberingAndListing(t *testing.T) {
	f := newAttemptFixture(t, fixtureOpts{taskType: "practice", objectiveN: 1})
	ctx := context.Background()

	first, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.student, first.SubmissionID)
	require.NoError(t, err)

	second, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.SubmissionAttemptNumber)

	subs, err := f.svc.ListForAssignment(ctx, f.student, f.assignmentID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, 1, subs[0].SubmissionAttemptNumber)
	assert.Equal(t, 2, subs[1].SubmissionAttemptNumber)

	_, err = f.svc.ListForAssignment(ctx, helperAuth.Caller{UserID: uuid.New(), Role: constants.RoleStudent}, f.assignmentID)
	assert.True(t, errs.Is(err, errs.CodePermissionDenied))
}

/* =========================================================
   subjective grading
========================================================= */

func TestSubjectiveGradingFlow(t *testing.T) {
	f := newAttemptFixture(t, fixtureOpts{taskType: "practice", objectiveN: 3, subjective: true})
	ctx := context.Background()

	sub, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	require.NoError(t, err)
	for _, rid := range f.objectiveRIDs {
		_, err := f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, rid, answerKey("a"))
		require.NoError(t, err)
	}
	_, err = f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, f.subjectiveRID,
		json.RawMessage(`"because pressure stops the bleeding"`))
	require.NoError(t, err)

	// a pending subjective answer keeps the attempt at submitted
	submitted, err := f.svc.Submit(ctx, f.student, sub.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionSubmitted, submitted.SubmissionStatus)
	assert.Equal(t, 75.0, submitted.SubmissionTotalScore)
	assert.Zero(t, f.pub.completions())

	_, err = f.svc.GradeSubjective(ctx, f.student, sub.SubmissionID, f.subjectiveRID, 20, nil)
	assert.True(t, errs.Is(err, errs.CodePermissionDenied))

	_, err = f.svc.GradeSubjective(ctx, f.teacher, sub.SubmissionID, f.objectiveRIDs[0], 20, nil)
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation), "objective answers are auto-graded")

	_, err = f.svc.GradeSubjective(ctx, f.teacher, sub.SubmissionID, f.subjectiveRID, 26, nil)
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation), "beyond the pinned score")

	comment := "good reasoning, minor gaps"
	graded, err := f.svc.GradeSubjective(ctx, f.teacher, sub.SubmissionID, f.subjectiveRID, 20, &comment)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionGraded, graded.SubmissionStatus)
	assert.Equal(t, 95.0, graded.SubmissionTotalScore)
	assert.Equal(t, 1, f.pub.completions())

	_, answers, err := f.svc.GetSubmission(ctx, f.teacher, sub.SubmissionID)
	require.NoError(t, err)
	for _, a := range answers {
		if a.AnswerQuestionResourceID == f.subjectiveRID {
			require.NotNil(t, a.AnswerIsCorrect)
			assert.False(t, *a.AnswerIsCorrect, "partial credit is not full correctness")
			require.NotNil(t, a.AnswerComment)
		}
	}

	_, err = f.svc.GradeSubjective(ctx, f.teacher, sub.SubmissionID, f.subjectiveRID, 20, nil)
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation), "already graded")
}

func TestSubjectiveQuestionLeftBlankStillGradable(t *testing.T) {
	f := newAttemptFixture(t, fixtureOpts{taskType: "practice", objectiveN: 1, subjective: true})
	ctx := context.Background()

	sub, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	require.NoError(t, err)
	_, err = f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, f.objectiveRIDs[0], answerKey("a"))
	require.NoError(t, err)

	// the subjective question is never answered
	submitted, err := f.svc.Submit(ctx, f.student, sub.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionSubmitted, submitted.SubmissionStatus)

	// submit created a blank gradable row for it
	var blank model.AnswerModel
	require.NoError(t, f.db.First(&blank,
		"answer_submission_id = ? AND answer_question_resource_id = ?",
		sub.SubmissionID, f.subjectiveRID).Error)
	assert.True(t, blank.AnswerIsSubjective)
	assert.Empty(t, blank.AnswerPayload)
	assert.Nil(t, blank.AnswerScore)

	graded, err := f.svc.GradeSubjective(ctx, f.teacher, sub.SubmissionID, f.subjectiveRID, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionGraded, graded.SubmissionStatus)
	assert.Equal(t, 25.0, graded.SubmissionTotalScore)
	assert.Equal(t, 1, f.pub.completions())
}

/* =========================================================
   exam rules
========================================================= */

func TestExamSingleAttempt(t *testing.T) {
	now := time.Now().UTC()
	start, end := now.Add(-time.Hour), now.Add(time.Hour)
	f := newAttemptFixture(t, fixtureOpts{taskType: "exam", objectiveN: 1, examStart: &start, examEnd: &end})
	ctx := context.Background()

	sub, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	require.NoError(t, err)
	_, err = f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, f.objectiveRIDs[0], answerKey("a"))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.student, sub.SubmissionID)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	assert.True(t, errs.Is(err, errs.CodeExamAlreadySubmitted))
}

func TestExamWindowEnforced(t *testing.T) {
	now := time.Now().UTC()

	t.Run("before the window opens", func(t *testing.T) {
		start, end := now.Add(time.Hour), now.Add(2*time.Hour)
		f := newAttemptFixture(t, fixtureOpts{taskType: "exam", objectiveN: 1, examStart: &start, examEnd: &end})
		_, err := f.svc.Start(context.Background(), f.student, f.assignmentID, f.taskQuizID)
		assert.True(t, errs.Is(err, errs.CodeExamNotInWindow))
	})

	t.Run("after the window closed", func(t *testing.T) {
		start, end := now.Add(-2*time.Hour), now.Add(-time.Hour)
		f := newAttemptFixture(t, fixtureOpts{taskType: "exam", objectiveN: 1, examStart: &start, examEnd: &end})
		_, err := f.svc.Start(context.Background(), f.student, f.assignmentID, f.taskQuizID)
		assert.True(t, errs.Is(err, errs.CodeExamNotInWindow))
	})
}

/* =========================================================
   guard rails
========================================================= */

func TestStartValidation(t *testing.T) {
	f := newAttemptFixture(t, fixtureOpts{taskType: "practice", objectiveN: 1})
	ctx := context.Background()

	stranger := helperAuth.Caller{UserID: uuid.New(), Role: constants.RoleStudent}
	_, err := f.svc.Start(ctx, stranger, f.assignmentID, f.taskQuizID)
	assert.True(t, errs.Is(err, errs.CodePermissionDenied))

	_, err = f.svc.Start(ctx, f.student, f.assignmentID, uuid.New())
	assert.True(t, errs.Is(err, errs.CodeNotFound))

	_, err = f.svc.Start(ctx, f.student, uuid.New(), f.taskQuizID)
	assert.True(t, errs.Is(err, errs.CodeNotFound))
}

func TestStartRejectedOnClosedTask(t *testing.T) {
	f := newAttemptFixture(t, fixtureOpts{taskType: "practice", objectiveN: 1})
	ctx := context.Background()

	require.NoError(t, f.db.Model(&tmodel.TaskModel{}).
		Where("task_id = ?", f.task.TaskID).
		Update("task_closed", true).Error)

	_, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation))
}

func TestSaveAnswerValidation(t *testing.T) {
	f := newAttemptFixture(t, fixtureOpts{taskType: "practice", objectiveN: 1})
	ctx := context.Background()

	sub, err := f.svc.Start(ctx, f.student, f.assignmentID, f.taskQuizID)
	require.NoError(t, err)

	_, err = f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, uuid.New(), answerKey("a"))
	assert.True(t, errs.Is(err, errs.CodeNotFound), "question outside the snapshot")

	// upsert keeps a single row per question
	_, err = f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, f.objectiveRIDs[0], answerKey("b"))
	require.NoError(t, err)
	saved, err := f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, f.objectiveRIDs[0], answerKey("a"))
	require.NoError(t, err)
	assert.JSONEq(t, `"a"`, string(saved.AnswerPayload))
	var n int64
	require.NoError(t, f.db.Model(&model.AnswerModel{}).
		Where("answer_submission_id = ?", sub.SubmissionID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	_, err = f.svc.Submit(ctx, f.student, sub.SubmissionID)
	require.NoError(t, err)
	_, err = f.svc.SaveAnswer(ctx, f.student, sub.SubmissionID, f.objectiveRIDs[0], answerKey("a"))
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation), "attempt already closed")
	_, err = f.svc.Submit(ctx, f.student, sub.SubmissionID)
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation), "double submit")
}

func TestStartRejectedOnLearningTask(t *testing.T) {
	// a learning task may embed a quiz for reading material, but it is
	// never attemptable
	f := newAttemptFixture(t, fixtureOpts{taskType: "learning", objectiveN: 1})

	_, err := f.svc.Start(context.Background(), f.student, f.assignmentID, f.taskQuizID)
	assert.True(t, errs.Is(err, errs.CodeInvalidOperation))
}
