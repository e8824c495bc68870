// file: internals/features/learning/tasks/model/task_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskType string

const (
	TaskTypeLearning TaskType = "learning"
	TaskTypePractice TaskType = "practice"
	TaskTypeExam     TaskType = "exam"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeLearning, TaskTypePractice, TaskTypeExam:
		return true
	default:
		return false
	}
}

type TaskModel struct {
	TaskID          uuid.UUID  `gorm:"column:task_id;type:uuid;primaryKey" json:"task_id"`
	TaskTitle       string     `gorm:"column:task_title;type:varchar(255);not null" json:"task_title"`
	TaskDescription string     `gorm:"column:task_description;type:text" json:"task_description"`
	TaskType        TaskType   `gorm:"column:task_type;type:varchar(16);not null" json:"task_type"`
	TaskDeadline    *time.Time `gorm:"column:task_deadline" json:"task_deadline,omitempty"`

	// Exam window; both set only for exam-type tasks.
	TaskExamStartAt *time.Time `gorm:"column:task_exam_start_at" json:"task_exam_start_at,omitempty"`
	TaskExamEndAt   *time.Time `gorm:"column:task_exam_end_at" json:"task_exam_end_at,omitempty"`

	TaskClosed   bool      `gorm:"column:task_closed;not null;default:false" json:"task_closed"`
	TaskAuthorID uuid.UUID `gorm:"column:task_author_id;type:uuid;not null" json:"task_author_id"`

	TaskCreatedAt time.Time      `gorm:"column:task_created_at;autoCreateTime" json:"task_created_at"`
	TaskUpdatedAt time.Time      `gorm:"column:task_updated_at;autoUpdateTime" json:"task_updated_at"`
	TaskDeletedAt gorm.DeletedAt `gorm:"column:task_deleted_at;index" json:"task_deleted_at,omitempty"`
}

func (TaskModel) TableName() string { return "tasks" }

func (m *TaskModel) BeforeCreate(tx *gorm.DB) error {
	if m.TaskID == uuid.Nil {
		m.TaskID = uuid.New()
	}
	return nil
}

// InExamWindow reports whether now falls inside the exam time window.
// Tasks without a window (practice/learning) always pass.
func (m *TaskModel) InExamWindow(now time.Time) bool {
	if m.TaskExamStartAt != nil && now.Before(*m.TaskExamStartAt) {
		return false
	}
	if m.TaskExamEndAt != nil && now.After(*m.TaskExamEndAt) {
		return false
	}
	return true
}

// TaskKnowledgeModel embeds a frozen knowledge snapshot into a task. The
// snapshot column is written once at link time and never touched again.
type TaskKnowledgeModel struct {
	TaskKnowledgeID            uuid.UUID      `gorm:"column:task_knowledge_id;type:uuid;primaryKey" json:"task_knowledge_id"`
	TaskKnowledgeTaskID        uuid.UUID      `gorm:"column:task_knowledge_task_id;type:uuid;not null;index" json:"task_knowledge_task_id"`
	TaskKnowledgeOrder         int            `gorm:"column:task_knowledge_order;not null;default:0" json:"task_knowledge_order"`
	TaskKnowledgeResourceID    uuid.UUID      `gorm:"column:task_knowledge_resource_id;type:uuid;not null;index" json:"task_knowledge_resource_id"`
	TaskKnowledgeVersionNumber int            `gorm:"column:task_knowledge_version_number;not null" json:"task_knowledge_version_number"`
	TaskKnowledgeSnapshot      datatypes.JSON `gorm:"column:task_knowledge_snapshot;type:jsonb;not null" json:"task_knowledge_snapshot"`
	TaskKnowledgeCreatedAt     time.Time      `gorm:"column:task_knowledge_created_at;autoCreateTime" json:"task_knowledge_created_at"`
}

func (TaskKnowledgeModel) TableName() string { return "task_knowledge" }

func (m *TaskKnowledgeModel) BeforeCreate(tx *gorm.DB) error {
	if m.TaskKnowledgeID == uuid.Nil {
		m.TaskKnowledgeID = uuid.New()
	}
	return nil
}

// TaskQuizModel embeds a frozen quiz snapshot (fully expanded questions
// included) into a task.
type TaskQuizModel struct {
	TaskQuizID            uuid.UUID      `gorm:"column:task_quiz_id;type:uuid;primaryKey" json:"task_quiz_id"`
	TaskQuizTaskID        uuid.UUID      `gorm:"column:task_quiz_task_id;type:uuid;not null;index" json:"task_quiz_task_id"`
	TaskQuizOrder         int            `gorm:"column:task_quiz_order;not null;default:0" json:"task_quiz_order"`
	TaskQuizResourceID    uuid.UUID      `gorm:"column:task_quiz_resource_id;type:uuid;not null;index" json:"task_quiz_resource_id"`
	TaskQuizVersionNumber int            `gorm:"column:task_quiz_version_number;not null" json:"task_quiz_version_number"`
	TaskQuizSnapshot      datatypes.JSON `gorm:"column:task_quiz_snapshot;type:jsonb;not null" json:"task_quiz_snapshot"`
	TaskQuizCreatedAt     time.Time      `gorm:"column:task_quiz_created_at;autoCreateTime" json:"task_quiz_created_at"`
}

func (TaskQuizModel) TableName() string { return "task_quizzes" }

func (m *TaskQuizModel) BeforeCreate(tx *gorm.DB) error {
	if m.TaskQuizID == uuid.Nil {
		m.TaskQuizID = uuid.New()
	}
	return nil
}
