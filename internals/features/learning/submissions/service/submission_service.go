// file: internals/features/learning/submissions/service/submission_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/submissions/model"
	tmodel "akademiku_backend/internals/features/learning/tasks/model"
	tservice "akademiku_backend/internals/features/learning/tasks/service"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/helpers/dbtx"
)

type SubmissionService struct {
	DB          *gorm.DB
	Assignments *tservice.AssignmentService
}

func NewSubmissionService(db *gorm.DB, assignments *tservice.AssignmentService) *SubmissionService {
	return &SubmissionService{DB: db, Assignments: assignments}
}

/* =========================================================
   Start: attempt numbering under conflict retry
========================================================= */

// Start opens a new attempt. attempt_number = prior attempts + 1, guarded by
// the unique (assignment, quiz resource, attempt) index: two concurrent
// starts computing the same number collide and one retries.
func (s *SubmissionService) Start(ctx context.Context, caller helperAuth.Caller, assignmentID, taskQuizID uuid.UUID) (*model.SubmissionModel, error) {
	var sub *model.SubmissionModel
	err := dbtx.WithRetry(ctx, s.DB, func(tx *gorm.DB) error {
		a, task, link, err := s.loadAttemptScope(tx, caller, assignmentID, taskQuizID)
		if err != nil {
			return err
		}
		if task.TaskType == tmodel.TaskTypeLearning {
			return errs.InvalidOperation("learning tasks have no quiz attempts")
		}
		if task.TaskClosed {
			return errs.InvalidOperation("task is closed")
		}

		now := time.Now().UTC()
		if task.TaskType == tmodel.TaskTypeExam {
			if !task.InExamWindow(now) {
				return errs.ExamNotInWindow("the exam window is not open")
			}
			// single attempt: once anything was handed in, no new start
			var n int64
			if err := tx.Model(&model.SubmissionModel{}).
				Where("submission_assignment_id = ? AND submission_quiz_resource_id = ? AND submission_status <> ?",
					a.TaskAssignmentID, link.TaskQuizResourceID, model.SubmissionInProgress).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return errs.ExamAlreadySubmitted("this exam was already submitted")
			}
		}

		var prior int64
		if err := tx.Model(&model.SubmissionModel{}).
			Where("submission_assignment_id = ? AND submission_quiz_resource_id = ?",
				a.TaskAssignmentID, link.TaskQuizResourceID).
			Count(&prior).Error; err != nil {
			return err
		}

		m := &model.SubmissionModel{
			SubmissionAssignmentID:      a.TaskAssignmentID,
			SubmissionTaskQuizID:        link.TaskQuizID,
			SubmissionQuizResourceID:    link.TaskQuizResourceID,
			SubmissionQuizVersionNumber: link.TaskQuizVersionNumber,
			SubmissionAttemptNumber:     int(prior) + 1,
			SubmissionStatus:            model.SubmissionInProgress,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		sub = m
		return nil
	})
	if err != nil {
		if dbtx.IsConflict(err) {
			return nil, errs.Conflict("could not allocate attempt number, try again")
		}
		return nil, err
	}
	return sub, nil
}

/* =========================================================
   Answers
========================================================= */

// SaveAnswer upserts the response for one snapshot question while the
// attempt is still open. No scoring happens here.
func (s *SubmissionService) SaveAnswer(ctx context.Context, caller helperAuth.Caller, submissionID, questionResourceID uuid.UUID, payload json.RawMessage) (*model.AnswerModel, error) {
	var out *model.AnswerModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		sub, _, snap, err := s.loadSubmissionScope(tx, caller, submissionID)
		if err != nil {
			return err
		}
		if sub.SubmissionStatus != model.SubmissionInProgress {
			return errs.InvalidOperation("answers can only be saved while the attempt is in progress")
		}

		pinned, ok := snap.Question(questionResourceID)
		if !ok {
			return errs.NotFound("question is not part of this quiz snapshot")
		}

		var ans model.AnswerModel
		err = tx.Where("answer_submission_id = ? AND answer_question_resource_id = ?",
			sub.SubmissionID, questionResourceID).First(&ans).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			ans = model.AnswerModel{
				AnswerSubmissionID:          sub.SubmissionID,
				AnswerQuestionResourceID:    pinned.ResourceID,
				AnswerQuestionVersionNumber: pinned.VersionNumber,
				AnswerPayload:               datatypesJSON(payload),
				AnswerIsSubjective:          pinned.Subjective,
			}
			if err := tx.Create(&ans).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			ans.AnswerPayload = datatypesJSON(payload)
			if err := tx.Save(&ans).Error; err != nil {
				return err
			}
		}
		out = &ans
		return nil
	})
	return out, err
}

/* =========================================================
   Submit: auto-grading against the snapshot
========================================================= */

// Submit closes the attempt. Objective answers are scored against the
// snapshot's pinned answer keys — never a live question lookup. Attempts
// with no subjective questions go straight to graded.
func (s *SubmissionService) Submit(ctx context.Context, caller helperAuth.Caller, submissionID uuid.UUID) (*model.SubmissionModel, error) {
	var out *model.SubmissionModel
	var completed *tmodel.TaskAssignmentModel

	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		sub, a, snap, err := s.loadSubmissionScope(tx, caller, submissionID)
		if err != nil {
			return err
		}
		if sub.SubmissionStatus != model.SubmissionInProgress {
			return errs.InvalidOperation("only an in-progress attempt can be submitted")
		}

		var task tmodel.TaskModel
		if err := tx.First(&task, "task_id = ?", a.TaskAssignmentTaskID).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		if task.TaskType == tmodel.TaskTypeExam {
			if !task.InExamWindow(now) {
				return errs.ExamNotInWindow("the exam window is closed")
			}
			var n int64
			if err := tx.Model(&model.SubmissionModel{}).
				Where("submission_assignment_id = ? AND submission_quiz_resource_id = ? AND submission_status <> ? AND submission_id <> ?",
					a.TaskAssignmentID, sub.SubmissionQuizResourceID, model.SubmissionInProgress, sub.SubmissionID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return errs.ExamAlreadySubmitted("this exam was already submitted")
			}
		}

		var answers []model.AnswerModel
		if err := tx.Where("answer_submission_id = ?", sub.SubmissionID).
			Find(&answers).Error; err != nil {
			return err
		}

		// every subjective question needs a row the grader can score, even
		// when the student left it blank. Without one the submission could
		// never leave submitted.
		answered := make(map[uuid.UUID]bool, len(answers))
		for i := range answers {
			answered[answers[i].AnswerQuestionResourceID] = true
		}
		for i := range snap.Questions {
			q := &snap.Questions[i]
			if !q.Subjective || answered[q.ResourceID] {
				continue
			}
			blank := model.AnswerModel{
				AnswerSubmissionID:          sub.SubmissionID,
				AnswerQuestionResourceID:    q.ResourceID,
				AnswerQuestionVersionNumber: q.VersionNumber,
				AnswerIsSubjective:          true,
			}
			if err := tx.Create(&blank).Error; err != nil {
				return err
			}
			answers = append(answers, blank)
		}

		total := 0.0
		for i := range answers {
			ans := &answers[i]
			if ans.AnswerIsSubjective {
				continue
			}
			pinned, ok := snap.Question(ans.AnswerQuestionResourceID)
			if !ok {
				continue
			}
			correct := matchAnswer(pinned, ans.AnswerPayload)
			score := 0.0
			if correct {
				score = pinned.Score
			}
			ans.AnswerIsCorrect = &correct
			ans.AnswerScore = &score
			total += score
			if err := tx.Save(ans).Error; err != nil {
				return err
			}
		}

		sub.SubmissionStatus = model.SubmissionSubmitted
		sub.SubmissionSubmittedAt = &now
		sub.SubmissionTotalScore = total

		if !snap.HasSubjective {
			sub.SubmissionStatus = model.SubmissionGraded
			sub.SubmissionGradedAt = &now
			fresh, err := s.Assignments.CompleteInTx(tx, a.TaskAssignmentID, now)
			if err != nil {
				return err
			}
			if fresh {
				completed = a
			}
		}

		if err := tx.Save(sub).Error; err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed != nil {
		s.Assignments.EmitCompleted(ctx, completed)
	}
	log.Printf("[SubmissionService] submission %s -> %s total=%.2f", out.SubmissionID, out.SubmissionStatus, out.SubmissionTotalScore)
	return out, nil
}

/* =========================================================
   Manual grading of subjective answers
========================================================= */

// GradeSubjective scores one subjective answer. When the last ungraded
// subjective answer is scored, the submission transitions to graded and the
// total is recomputed from all component scores.
func (s *SubmissionService) GradeSubjective(ctx context.Context, caller helperAuth.Caller, submissionID, questionResourceID uuid.UUID, obtained float64, comment *string) (*model.SubmissionModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may grade answers")
	}

	var out *model.SubmissionModel
	var completed *tmodel.TaskAssignmentModel

	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var sub model.SubmissionModel
		if err := tx.First(&sub, "submission_id = ?", submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("submission not found")
			}
			return err
		}
		if sub.SubmissionStatus != model.SubmissionSubmitted {
			return errs.InvalidOperation("only a submitted attempt can be graded manually")
		}

		var a tmodel.TaskAssignmentModel
		if err := tx.First(&a, "task_assignment_id = ?", sub.SubmissionAssignmentID).Error; err != nil {
			return err
		}
		var link tmodel.TaskQuizModel
		if err := tx.First(&link, "task_quiz_id = ?", sub.SubmissionTaskQuizID).Error; err != nil {
			return err
		}
		snap, err := link.Snapshot()
		if err != nil {
			return err
		}
		pinned, ok := snap.Question(questionResourceID)
		if !ok {
			return errs.NotFound("question is not part of this quiz snapshot")
		}
		if !pinned.Subjective {
			return errs.InvalidOperation("only subjective answers are graded manually")
		}
		if obtained < 0 || obtained > pinned.Score {
			return errs.InvalidOperation("obtained score is outside the question's pinned score range")
		}

		var ans model.AnswerModel
		if err := tx.Where("answer_submission_id = ? AND answer_question_resource_id = ?",
			sub.SubmissionID, questionResourceID).First(&ans).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("no answer was saved for this question")
			}
			return err
		}

		correct := obtained >= pinned.Score
		ans.AnswerScore = &obtained
		ans.AnswerIsCorrect = &correct
		ans.AnswerComment = comment
		if err := tx.Save(&ans).Error; err != nil {
			return err
		}

		// remaining ungraded subjective answers?
		var remaining int64
		if err := tx.Model(&model.AnswerModel{}).
			Where("answer_submission_id = ? AND answer_is_subjective = ? AND answer_score IS NULL",
				sub.SubmissionID, true).
			Count(&remaining).Error; err != nil {
			return err
		}

		if remaining == 0 {
			var answers []model.AnswerModel
			if err := tx.Where("answer_submission_id = ?", sub.SubmissionID).
				Find(&answers).Error; err != nil {
				return err
			}
			total := 0.0
			for _, x := range answers {
				if x.AnswerScore != nil {
					total += *x.AnswerScore
				}
			}
			now := time.Now().UTC()
			sub.SubmissionStatus = model.SubmissionGraded
			sub.SubmissionGradedAt = &now
			sub.SubmissionTotalScore = total
			if err := tx.Save(&sub).Error; err != nil {
				return err
			}
			fresh, err := s.Assignments.CompleteInTx(tx, a.TaskAssignmentID, now)
			if err != nil {
				return err
			}
			if fresh {
				completed = &a
			}
		}
		out = &sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	if completed != nil {
		s.Assignments.EmitCompleted(ctx, completed)
	}
	return out, nil
}

/* =========================================================
   Reads
========================================================= */

func (s *SubmissionService) GetSubmission(ctx context.Context, caller helperAuth.Caller, submissionID uuid.UUID) (*model.SubmissionModel, []model.AnswerModel, error) {
	var sub model.SubmissionModel
	if err := s.DB.WithContext(ctx).First(&sub, "submission_id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.NotFound("submission not found")
		}
		return nil, nil, err
	}
	var a tmodel.TaskAssignmentModel
	if err := s.DB.WithContext(ctx).First(&a, "task_assignment_id = ?", sub.SubmissionAssignmentID).Error; err != nil {
		return nil, nil, err
	}
	if !caller.IsPrivileged() && a.TaskAssignmentAssigneeID != caller.UserID {
		return nil, nil, errs.PermissionDenied("not your submission")
	}
	var answers []model.AnswerModel
	if err := s.DB.WithContext(ctx).Where("answer_submission_id = ?", sub.SubmissionID).
		Order("answer_created_at ASC").Find(&answers).Error; err != nil {
		return nil, nil, err
	}
	return &sub, answers, nil
}

func (s *SubmissionService) ListForAssignment(ctx context.Context, caller helperAuth.Caller, assignmentID uuid.UUID) ([]model.SubmissionModel, error) {
	var a tmodel.TaskAssignmentModel
	if err := s.DB.WithContext(ctx).First(&a, "task_assignment_id = ?", assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("assignment not found")
		}
		return nil, err
	}
	if !caller.IsPrivileged() && a.TaskAssignmentAssigneeID != caller.UserID {
		return nil, errs.PermissionDenied("not your assignment")
	}
	var subs []model.SubmissionModel
	err := s.DB.WithContext(ctx).
		Where("submission_assignment_id = ?", assignmentID).
		Order("submission_attempt_number ASC").
		Find(&subs).Error
	return subs, err
}

/* =========================================================
   internal
========================================================= */

func (s *SubmissionService) loadAttemptScope(tx *gorm.DB, caller helperAuth.Caller, assignmentID, taskQuizID uuid.UUID) (*tmodel.TaskAssignmentModel, *tmodel.TaskModel, *tmodel.TaskQuizModel, error) {
	var a tmodel.TaskAssignmentModel
	if err := tx.First(&a, "task_assignment_id = ?", assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, errs.NotFound("assignment not found")
		}
		return nil, nil, nil, err
	}
	if a.TaskAssignmentAssigneeID != caller.UserID {
		return nil, nil, nil, errs.PermissionDenied("not your assignment")
	}
	var task tmodel.TaskModel
	if err := tx.First(&task, "task_id = ?", a.TaskAssignmentTaskID).Error; err != nil {
		return nil, nil, nil, err
	}
	var link tmodel.TaskQuizModel
	if err := tx.First(&link, "task_quiz_id = ?", taskQuizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, errs.NotFound("task quiz not found")
		}
		return nil, nil, nil, err
	}
	if link.TaskQuizTaskID != task.TaskID {
		return nil, nil, nil, errs.InvalidOperation("quiz does not belong to this task")
	}
	return &a, &task, &link, nil
}

func (s *SubmissionService) loadSubmissionScope(tx *gorm.DB, caller helperAuth.Caller, submissionID uuid.UUID) (*model.SubmissionModel, *tmodel.TaskAssignmentModel, *tmodel.QuizSnapshot, error) {
	var sub model.SubmissionModel
	if err := tx.First(&sub, "submission_id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, errs.NotFound("submission not found")
		}
		return nil, nil, nil, err
	}
	var a tmodel.TaskAssignmentModel
	if err := tx.First(&a, "task_assignment_id = ?", sub.SubmissionAssignmentID).Error; err != nil {
		return nil, nil, nil, err
	}
	if a.TaskAssignmentAssigneeID != caller.UserID {
		return nil, nil, nil, errs.PermissionDenied("not your submission")
	}
	var link tmodel.TaskQuizModel
	if err := tx.First(&link, "task_quiz_id = ?", sub.SubmissionTaskQuizID).Error; err != nil {
		return nil, nil, nil, err
	}
	snap, err := link.Snapshot()
	if err != nil {
		return nil, nil, nil, err
	}
	return &sub, &a, snap, nil
}
