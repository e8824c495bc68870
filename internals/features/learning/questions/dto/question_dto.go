// file: internals/features/learning/questions/dto/question_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"akademiku_backend/internals/features/learning/questions/model"
	"akademiku_backend/internals/features/learning/versioning"
)

/* ==============================
   CREATE (POST /questions)
============================== */

type CreateQuestionRequest struct {
	QuestionType        string         `json:"question_type" validate:"required,oneof=single multiple truefalse short"`
	QuestionStem        string         `json:"question_stem" validate:"required"`
	QuestionOptions     datatypes.JSON `json:"question_options" validate:"omitempty"`
	QuestionAnswer      datatypes.JSON `json:"question_answer" validate:"omitempty"`
	QuestionExplanation *string        `json:"question_explanation" validate:"omitempty"`
	QuestionScore       *float64       `json:"question_score" validate:"omitempty,gte=0"`
}

func (r *CreateQuestionRequest) ToModel(authorID uuid.UUID) *model.QuestionModel {
	score := 1.0
	if r.QuestionScore != nil {
		score = *r.QuestionScore
	}
	return &model.QuestionModel{
		QuestionVersionNumber: 1,
		QuestionStatus:        versioning.StatusDraft,
		QuestionType:          model.QuestionType(r.QuestionType),
		QuestionStem:          r.QuestionStem,
		QuestionOptions:       r.QuestionOptions,
		QuestionAnswer:        r.QuestionAnswer,
		QuestionExplanation:   r.QuestionExplanation,
		QuestionScore:         score,
		QuestionAuthorID:      authorID,
	}
}

/* ==============================
   UPDATE draft (PATCH /questions/:id)
============================== */

type UpdateQuestionRequest struct {
	QuestionStem        *string        `json:"question_stem" validate:"omitempty"`
	QuestionOptions     datatypes.JSON `json:"question_options" validate:"omitempty"`
	QuestionAnswer      datatypes.JSON `json:"question_answer" validate:"omitempty"`
	QuestionExplanation *string        `json:"question_explanation" validate:"omitempty"`
	QuestionScore       *float64       `json:"question_score" validate:"omitempty,gte=0"`
}

func (r *UpdateQuestionRequest) Apply(m *model.QuestionModel) {
	if r.QuestionStem != nil {
		m.QuestionStem = *r.QuestionStem
	}
	if len(r.QuestionOptions) > 0 {
		m.QuestionOptions = r.QuestionOptions
	}
	if len(r.QuestionAnswer) > 0 {
		m.QuestionAnswer = r.QuestionAnswer
	}
	if r.QuestionExplanation != nil {
		m.QuestionExplanation = r.QuestionExplanation
	}
	if r.QuestionScore != nil {
		m.QuestionScore = *r.QuestionScore
	}
}

/* ==============================
   RESPONSE
============================== */

type QuestionResponse struct {
	QuestionID              uuid.UUID      `json:"question_id"`
	QuestionResourceID      uuid.UUID      `json:"question_resource_id"`
	QuestionVersionNumber   int            `json:"question_version_number"`
	QuestionStatus          string         `json:"question_status"`
	QuestionIsCurrent       bool           `json:"question_is_current"`
	QuestionSourceVersionID *uuid.UUID     `json:"question_source_version_id,omitempty"`
	QuestionPublishedAt     *time.Time     `json:"question_published_at,omitempty"`
	QuestionType            string         `json:"question_type"`
	QuestionStem            string         `json:"question_stem"`
	QuestionOptions         datatypes.JSON `json:"question_options,omitempty"`
	QuestionAnswer          datatypes.JSON `json:"question_answer,omitempty"`
	QuestionExplanation     *string        `json:"question_explanation,omitempty"`
	QuestionScore           float64        `json:"question_score"`
	QuestionCreatedAt       time.Time      `json:"question_created_at"`
}

// ToQuestionResponse hides the answer key and explanation unless the caller
// is privileged (students must not see grading data while answering).
func ToQuestionResponse(m *model.QuestionModel, withAnswer bool) QuestionResponse {
	resp := QuestionResponse{
		QuestionID:              m.QuestionID,
		QuestionResourceID:      m.QuestionResourceID,
		QuestionVersionNumber:   m.QuestionVersionNumber,
		QuestionStatus:          string(m.QuestionStatus),
		QuestionIsCurrent:       m.QuestionIsCurrent,
		QuestionSourceVersionID: m.QuestionSourceVersionID,
		QuestionPublishedAt:     m.QuestionPublishedAt,
		QuestionType:            string(m.QuestionType),
		QuestionStem:            m.QuestionStem,
		QuestionOptions:         m.QuestionOptions,
		QuestionScore:           m.QuestionScore,
		QuestionCreatedAt:       m.QuestionCreatedAt,
	}
	if withAnswer {
		resp.QuestionAnswer = m.QuestionAnswer
		resp.QuestionExplanation = m.QuestionExplanation
	}
	return resp
}
