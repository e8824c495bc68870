// file: internals/features/learning/quizzes/dto/quiz_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"akademiku_backend/internals/features/learning/quizzes/model"
	"akademiku_backend/internals/features/learning/versioning"
)

/* ==============================
   CREATE (POST /quizzes)
============================== */

type CreateQuizRequest struct {
	QuizTitle       string `json:"quiz_title" validate:"required,max=255"`
	QuizDescription string `json:"quiz_description" validate:"omitempty"`
	// Ordered question resource ids composing the quiz.
	QuizQuestionResourceIDs []uuid.UUID `json:"quiz_question_resource_ids" validate:"omitempty,dive,required"`
}

func (r *CreateQuizRequest) ToModel(authorID uuid.UUID) *model.QuizModel {
	return &model.QuizModel{
		QuizVersionNumber: 1,
		QuizStatus:        versioning.StatusDraft,
		QuizTitle:         r.QuizTitle,
		QuizDescription:   r.QuizDescription,
		QuizAuthorID:      authorID,
	}
}

/* ==============================
   UPDATE draft (PATCH /quizzes/:id)
============================== */

type UpdateQuizRequest struct {
	QuizTitle       *string `json:"quiz_title" validate:"omitempty,max=255"`
	QuizDescription *string `json:"quiz_description" validate:"omitempty"`
	// When present, replaces the draft's composition in the given order.
	QuizQuestionResourceIDs []uuid.UUID `json:"quiz_question_resource_ids" validate:"omitempty,dive,required"`
}

func (r *UpdateQuizRequest) Apply(m *model.QuizModel) {
	if r.QuizTitle != nil {
		m.QuizTitle = *r.QuizTitle
	}
	if r.QuizDescription != nil {
		m.QuizDescription = *r.QuizDescription
	}
}

/* ==============================
   RESPONSE
============================== */

type QuizQuestionRef struct {
	QuestionResourceID uuid.UUID `json:"question_resource_id"`
	Order              int       `json:"order"`
}

type QuizResponse struct {
	QuizID              uuid.UUID         `json:"quiz_id"`
	QuizResourceID      uuid.UUID         `json:"quiz_resource_id"`
	QuizVersionNumber   int               `json:"quiz_version_number"`
	QuizStatus          string            `json:"quiz_status"`
	QuizIsCurrent       bool              `json:"quiz_is_current"`
	QuizSourceVersionID *uuid.UUID        `json:"quiz_source_version_id,omitempty"`
	QuizPublishedAt     *time.Time        `json:"quiz_published_at,omitempty"`
	QuizTitle           string            `json:"quiz_title"`
	QuizDescription     string            `json:"quiz_description,omitempty"`
	QuizQuestions       []QuizQuestionRef `json:"quiz_questions"`
	QuizCreatedAt       time.Time         `json:"quiz_created_at"`
}

func ToQuizResponse(m *model.QuizModel, links []model.QuizQuestionModel) QuizResponse {
	refs := make([]QuizQuestionRef, 0, len(links))
	for _, l := range links {
		refs = append(refs, QuizQuestionRef{
			QuestionResourceID: l.QuizQuestionQuestionResourceID,
			Order:              l.QuizQuestionOrder,
		})
	}
	return QuizResponse{
		QuizID:              m.QuizID,
		QuizResourceID:      m.QuizResourceID,
		QuizVersionNumber:   m.QuizVersionNumber,
		QuizStatus:          string(m.QuizStatus),
		QuizIsCurrent:       m.QuizIsCurrent,
		QuizSourceVersionID: m.QuizSourceVersionID,
		QuizPublishedAt:     m.QuizPublishedAt,
		QuizTitle:           m.QuizTitle,
		QuizDescription:     m.QuizDescription,
		QuizQuestions:       refs,
		QuizCreatedAt:       m.QuizCreatedAt,
	}
}
