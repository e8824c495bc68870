// file: internals/features/learning/submissions/model/submission_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionSubmitted  SubmissionStatus = "submitted"
	SubmissionGraded     SubmissionStatus = "graded"
)

// SubmissionModel is one attempt at a quiz snapshot by one assignee. It pins
// the quiz by (resource_id, version_number) — no live foreign key, so later
// quiz edits can never reach a finished attempt.
type SubmissionModel struct {
	SubmissionID                uuid.UUID        `gorm:"column:submission_id;type:uuid;primaryKey" json:"submission_id"`
	SubmissionAssignmentID      uuid.UUID        `gorm:"column:submission_assignment_id;type:uuid;not null;index;uniqueIndex:uq_submission_attempt" json:"submission_assignment_id"`
	SubmissionTaskQuizID        uuid.UUID        `gorm:"column:submission_task_quiz_id;type:uuid;not null;index" json:"submission_task_quiz_id"`
	SubmissionQuizResourceID    uuid.UUID        `gorm:"column:submission_quiz_resource_id;type:uuid;not null;uniqueIndex:uq_submission_attempt" json:"submission_quiz_resource_id"`
	SubmissionQuizVersionNumber int              `gorm:"column:submission_quiz_version_number;not null" json:"submission_quiz_version_number"`
	SubmissionAttemptNumber     int              `gorm:"column:submission_attempt_number;not null;uniqueIndex:uq_submission_attempt" json:"submission_attempt_number"`
	SubmissionStatus            SubmissionStatus `gorm:"column:submission_status;type:varchar(16);not null;default:'in_progress'" json:"submission_status"`
	SubmissionTotalScore        float64          `gorm:"column:submission_total_score;type:numeric(8,2);not null;default:0" json:"submission_total_score"`

	SubmissionStartedAt   time.Time  `gorm:"column:submission_started_at;autoCreateTime" json:"submission_started_at"`
	SubmissionSubmittedAt *time.Time `gorm:"column:submission_submitted_at" json:"submission_submitted_at,omitempty"`
	SubmissionGradedAt    *time.Time `gorm:"column:submission_graded_at" json:"submission_graded_at,omitempty"`

	SubmissionCreatedAt time.Time `gorm:"column:submission_created_at;autoCreateTime" json:"submission_created_at"`
	SubmissionUpdatedAt time.Time `gorm:"column:submission_updated_at;autoUpdateTime" json:"submission_updated_at"`
}

func (SubmissionModel) TableName() string { return "submissions" }

func (m *SubmissionModel) BeforeCreate(tx *gorm.DB) error {
	if m.SubmissionID == uuid.Nil {
		m.SubmissionID = uuid.New()
	}
	return nil
}

// AnswerModel is one response inside a submission, pinned to the question's
// exact snapshot version. Correctness and score are written at grading time.
type AnswerModel struct {
	AnswerID                    uuid.UUID      `gorm:"column:answer_id;type:uuid;primaryKey" json:"answer_id"`
	AnswerSubmissionID          uuid.UUID      `gorm:"column:answer_submission_id;type:uuid;not null;index;uniqueIndex:uq_answer_question" json:"answer_submission_id"`
	AnswerQuestionResourceID    uuid.UUID      `gorm:"column:answer_question_resource_id;type:uuid;not null;uniqueIndex:uq_answer_question" json:"answer_question_resource_id"`
	AnswerQuestionVersionNumber int            `gorm:"column:answer_question_version_number;not null" json:"answer_question_version_number"`
	AnswerPayload               datatypes.JSON `gorm:"column:answer_payload;type:jsonb" json:"answer_payload"`
	AnswerIsSubjective          bool           `gorm:"column:answer_is_subjective;not null;default:false" json:"answer_is_subjective"`
	AnswerIsCorrect             *bool          `gorm:"column:answer_is_correct" json:"answer_is_correct,omitempty"`
	AnswerScore                 *float64       `gorm:"column:answer_score;type:numeric(8,2)" json:"answer_score,omitempty"`
	AnswerComment               *string        `gorm:"column:answer_comment;type:text" json:"answer_comment,omitempty"`

	AnswerCreatedAt time.Time `gorm:"column:answer_created_at;autoCreateTime" json:"answer_created_at"`
	AnswerUpdatedAt time.Time `gorm:"column:answer_updated_at;autoUpdateTime" json:"answer_updated_at"`
}

func (AnswerModel) TableName() string { return "answers" }

func (m *AnswerModel) BeforeCreate(tx *gorm.DB) error {
	if m.AnswerID == uuid.Nil {
		m.AnswerID = uuid.New()
	}
	return nil
}

func (m *AnswerModel) IsGraded() bool { return m.AnswerScore != nil }
