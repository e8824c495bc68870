// file: internals/features/learning/tasks/dto/task_dto.go
package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"akademiku_backend/internals/features/learning/tasks/model"
)

/* ==============================
   CREATE (POST /tasks)
============================== */

type CreateTaskRequest struct {
	TaskTitle       string     `json:"task_title" validate:"required,max=255"`
	TaskDescription string     `json:"task_description" validate:"omitempty"`
	TaskType        string     `json:"task_type" validate:"required,oneof=learning practice exam"`
	TaskDeadline    *time.Time `json:"task_deadline" validate:"omitempty"`
	TaskExamStartAt *time.Time `json:"task_exam_start_at" validate:"omitempty"`
	TaskExamEndAt   *time.Time `json:"task_exam_end_at" validate:"omitempty"`

	// Logical resource ids; snapshots pin whatever is current published
	// at creation time.
	KnowledgeResourceIDs []uuid.UUID `json:"knowledge_resource_ids" validate:"omitempty,dive,required"`
	QuizResourceIDs      []uuid.UUID `json:"quiz_resource_ids" validate:"omitempty,dive,required"`

	AssigneeIDs []uuid.UUID `json:"assignee_ids" validate:"required,min=1,dive,required"`
}

/* ==============================
   RESPONSES
============================== */

type TaskResponse struct {
	TaskID          uuid.UUID  `json:"task_id"`
	TaskTitle       string     `json:"task_title"`
	TaskDescription string     `json:"task_description,omitempty"`
	TaskType        string     `json:"task_type"`
	TaskDeadline    *time.Time `json:"task_deadline,omitempty"`
	TaskExamStartAt *time.Time `json:"task_exam_start_at,omitempty"`
	TaskExamEndAt   *time.Time `json:"task_exam_end_at,omitempty"`
	TaskClosed      bool       `json:"task_closed"`
	TaskAuthorID    uuid.UUID  `json:"task_author_id"`
	TaskCreatedAt   time.Time  `json:"task_created_at"`

	Knowledge []TaskKnowledgeResponse `json:"knowledge,omitempty"`
	Quizzes   []TaskQuizResponse      `json:"quizzes,omitempty"`
}

type TaskKnowledgeResponse struct {
	TaskKnowledgeID uuid.UUID      `json:"task_knowledge_id"`
	Order           int            `json:"order"`
	ResourceID      uuid.UUID      `json:"resource_id"`
	VersionNumber   int            `json:"version_number"`
	Snapshot        datatypes.JSON `json:"snapshot"`
}

type TaskQuizResponse struct {
	TaskQuizID    uuid.UUID      `json:"task_quiz_id"`
	Order         int            `json:"order"`
	ResourceID    uuid.UUID      `json:"resource_id"`
	VersionNumber int            `json:"version_number"`
	Snapshot      datatypes.JSON `json:"snapshot"`
}

// ToTaskResponse renders a task with its snapshot links. withAnswers must
// only be true for privileged callers: quiz snapshots embed the pinned answer
// keys and explanations, and students read tasks before submitting.
func ToTaskResponse(t *model.TaskModel, kn []model.TaskKnowledgeModel, qz []model.TaskQuizModel, withAnswers bool) TaskResponse {
	resp := TaskResponse{
		TaskID:          t.TaskID,
		TaskTitle:       t.TaskTitle,
		TaskDescription: t.TaskDescription,
		TaskType:        string(t.TaskType),
		TaskDeadline:    t.TaskDeadline,
		TaskExamStartAt: t.TaskExamStartAt,
		TaskExamEndAt:   t.TaskExamEndAt,
		TaskClosed:      t.TaskClosed,
		TaskAuthorID:    t.TaskAuthorID,
		TaskCreatedAt:   t.TaskCreatedAt,
	}
	for _, k := range kn {
		resp.Knowledge = append(resp.Knowledge, TaskKnowledgeResponse{
			TaskKnowledgeID: k.TaskKnowledgeID,
			Order:           k.TaskKnowledgeOrder,
			ResourceID:      k.TaskKnowledgeResourceID,
			VersionNumber:   k.TaskKnowledgeVersionNumber,
			Snapshot:        k.TaskKnowledgeSnapshot,
		})
	}
	for _, q := range qz {
		snapshot := q.TaskQuizSnapshot
		if !withAnswers {
			snapshot = RedactQuizSnapshot(snapshot)
		}
		resp.Quizzes = append(resp.Quizzes, TaskQuizResponse{
			TaskQuizID:    q.TaskQuizID,
			Order:         q.TaskQuizOrder,
			ResourceID:    q.TaskQuizResourceID,
			VersionNumber: q.TaskQuizVersionNumber,
			Snapshot:      snapshot,
		})
	}
	return resp
}

// RedactQuizSnapshot strips the pinned answer keys and explanations from a
// stored quiz snapshot. An unreadable snapshot yields nil rather than the raw
// payload, so a decode failure can never leak keys.
func RedactQuizSnapshot(raw datatypes.JSON) datatypes.JSON {
	var snap model.QuizSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil
	}
	for i := range snap.Questions {
		snap.Questions[i].Answer = nil
		snap.Questions[i].Explanation = nil
	}
	out, err := json.Marshal(snap)
	if err != nil {
		return nil
	}
	return datatypes.JSON(out)
}

type AssignmentResponse struct {
	TaskAssignmentID uuid.UUID  `json:"task_assignment_id"`
	TaskID           uuid.UUID  `json:"task_id"`
	AssigneeID       uuid.UUID  `json:"assignee_id"`
	Status           string     `json:"status"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func ToAssignmentResponse(a *model.TaskAssignmentModel, status model.TaskAssignmentStatus) AssignmentResponse {
	return AssignmentResponse{
		TaskAssignmentID: a.TaskAssignmentID,
		TaskID:           a.TaskAssignmentTaskID,
		AssigneeID:       a.TaskAssignmentAssigneeID,
		Status:           string(status),
		CompletedAt:      a.TaskAssignmentCompletedAt,
		CreatedAt:        a.TaskAssignmentCreatedAt,
	}
}

// ProgressResponse reports knowledge completion per assignment.
type ProgressResponse struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}
