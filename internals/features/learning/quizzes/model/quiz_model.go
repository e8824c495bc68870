// file: internals/features/learning/quizzes/model/quiz_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/versioning"
)

// QuizModel is one version row of a quiz. The question list lives in
// quiz_questions and is copied forward when a revision is created.
type QuizModel struct {
	QuizID              uuid.UUID                 `gorm:"column:quiz_id;type:uuid;primaryKey" json:"quiz_id"`
	QuizResourceID      uuid.UUID                 `gorm:"column:quiz_resource_id;type:uuid;not null;index" json:"quiz_resource_id"`
	QuizVersionNumber   int                       `gorm:"column:quiz_version_number;not null;default:1" json:"quiz_version_number"`
	QuizStatus          versioning.ResourceStatus `gorm:"column:quiz_status;type:varchar(16);not null;default:'draft'" json:"quiz_status"`
	QuizIsCurrent       bool                      `gorm:"column:quiz_is_current;not null;default:false" json:"quiz_is_current"`
	QuizSourceVersionID *uuid.UUID                `gorm:"column:quiz_source_version_id;type:uuid" json:"quiz_source_version_id,omitempty"`
	QuizPublishedAt     *time.Time                `gorm:"column:quiz_published_at" json:"quiz_published_at,omitempty"`

	QuizTitle       string `gorm:"column:quiz_title;type:varchar(255);not null" json:"quiz_title"`
	QuizDescription string `gorm:"column:quiz_description;type:text" json:"quiz_description"`

	QuizAuthorID  uuid.UUID `gorm:"column:quiz_author_id;type:uuid;not null" json:"quiz_author_id"`
	QuizCreatedAt time.Time `gorm:"column:quiz_created_at;autoCreateTime" json:"quiz_created_at"`
	QuizUpdatedAt time.Time `gorm:"column:quiz_updated_at;autoUpdateTime" json:"quiz_updated_at"`
}

func (QuizModel) TableName() string { return "quizzes" }

func (m *QuizModel) BeforeCreate(tx *gorm.DB) error {
	if m.QuizID == uuid.Nil {
		m.QuizID = uuid.New()
	}
	if m.QuizResourceID == uuid.Nil {
		m.QuizResourceID = uuid.New()
	}
	return nil
}

func (m *QuizModel) IsDraft() bool { return m.QuizStatus == versioning.StatusDraft }

// QuizQuestionModel links one quiz version row to a question's logical
// identity at a display position. The exact question version gets pinned
// later, by the task snapshot, not here.
type QuizQuestionModel struct {
	QuizQuestionID                 uuid.UUID `gorm:"column:quiz_question_id;type:uuid;primaryKey" json:"quiz_question_id"`
	QuizQuestionQuizID             uuid.UUID `gorm:"column:quiz_question_quiz_id;type:uuid;not null;index;uniqueIndex:uq_quiz_question" json:"quiz_question_quiz_id"`
	QuizQuestionQuestionResourceID uuid.UUID `gorm:"column:quiz_question_question_resource_id;type:uuid;not null;index;uniqueIndex:uq_quiz_question" json:"quiz_question_question_resource_id"`
	QuizQuestionOrder              int       `gorm:"column:quiz_question_order;not null;default:0" json:"quiz_question_order"`
	QuizQuestionCreatedAt          time.Time `gorm:"column:quiz_question_created_at;autoCreateTime" json:"quiz_question_created_at"`
}

func (QuizQuestionModel) TableName() string { return "quiz_questions" }

func (m *QuizQuestionModel) BeforeCreate(tx *gorm.DB) error {
	if m.QuizQuestionID == uuid.Nil {
		m.QuizQuestionID = uuid.New()
	}
	return nil
}

// Cols feeds the generic version store for this table.
var Cols = versioning.Cols{
	Table:         "quizzes",
	ID:            "quiz_id",
	ResourceID:    "quiz_resource_id",
	VersionNumber: "quiz_version_number",
	Status:        "quiz_status",
	IsCurrent:     "quiz_is_current",
	PublishedAt:   "quiz_published_at",
}
