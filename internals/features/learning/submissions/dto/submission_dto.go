// file: internals/features/learning/submissions/dto/submission_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"akademiku_backend/internals/features/learning/submissions/model"
)

/* ==============================
   REQUESTS
============================== */

type StartSubmissionRequest struct {
	AssignmentID uuid.UUID `json:"assignment_id" validate:"required"`
	TaskQuizID   uuid.UUID `json:"task_quiz_id" validate:"required"`
}

type SaveAnswerRequest struct {
	QuestionResourceID uuid.UUID      `json:"question_resource_id" validate:"required"`
	AnswerPayload      datatypes.JSON `json:"answer_payload" validate:"required"`
}

type GradeSubjectiveRequest struct {
	QuestionResourceID uuid.UUID `json:"question_resource_id" validate:"required"`
	ObtainedScore      float64   `json:"obtained_score" validate:"gte=0"`
	Comment            *string   `json:"comment" validate:"omitempty"`
}

/* ==============================
   RESPONSES
============================== */

type SubmissionResponse struct {
	SubmissionID      uuid.UUID  `json:"submission_id"`
	AssignmentID      uuid.UUID  `json:"assignment_id"`
	TaskQuizID        uuid.UUID  `json:"task_quiz_id"`
	QuizResourceID    uuid.UUID  `json:"quiz_resource_id"`
	QuizVersionNumber int        `json:"quiz_version_number"`
	AttemptNumber     int        `json:"attempt_number"`
	Status            string     `json:"status"`
	TotalScore        float64    `json:"total_score"`
	StartedAt         time.Time  `json:"started_at"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	GradedAt          *time.Time `json:"graded_at,omitempty"`

	Answers []AnswerResponse `json:"answers,omitempty"`
}

type AnswerResponse struct {
	AnswerID              uuid.UUID      `json:"answer_id"`
	QuestionResourceID    uuid.UUID      `json:"question_resource_id"`
	QuestionVersionNumber int            `json:"question_version_number"`
	Payload               datatypes.JSON `json:"payload"`
	IsSubjective          bool           `json:"is_subjective"`
	IsCorrect             *bool          `json:"is_correct,omitempty"`
	Score                 *float64       `json:"score,omitempty"`
	Comment               *string        `json:"comment,omitempty"`
}

func ToSubmissionResponse(m *model.SubmissionModel, answers []model.AnswerModel) SubmissionResponse {
	resp := SubmissionResponse{
		SubmissionID:      m.SubmissionID,
		AssignmentID:      m.SubmissionAssignmentID,
		TaskQuizID:        m.SubmissionTaskQuizID,
		QuizResourceID:    m.SubmissionQuizResourceID,
		QuizVersionNumber: m.SubmissionQuizVersionNumber,
		AttemptNumber:     m.SubmissionAttemptNumber,
		Status:            string(m.SubmissionStatus),
		TotalScore:        m.SubmissionTotalScore,
		StartedAt:         m.SubmissionStartedAt,
		SubmittedAt:       m.SubmissionSubmittedAt,
		GradedAt:          m.SubmissionGradedAt,
	}
	for _, a := range answers {
		resp.Answers = append(resp.Answers, AnswerResponse{
			AnswerID:              a.AnswerID,
			QuestionResourceID:    a.AnswerQuestionResourceID,
			QuestionVersionNumber: a.AnswerQuestionVersionNumber,
			Payload:               a.AnswerPayload,
			IsSubjective:          a.AnswerIsSubjective,
			IsCorrect:             a.AnswerIsCorrect,
			Score:                 a.AnswerScore,
			Comment:               a.AnswerComment,
		})
	}
	return resp
}
