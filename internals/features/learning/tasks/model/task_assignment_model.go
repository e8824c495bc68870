// file: internals/features/learning/tasks/model/task_assignment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskAssignmentStatus string

const (
	TaskAssignmentPending    TaskAssignmentStatus = "pending"
	TaskAssignmentInProgress TaskAssignmentStatus = "in_progress"
	TaskAssignmentCompleted  TaskAssignmentStatus = "completed"
	TaskAssignmentOverdue    TaskAssignmentStatus = "overdue"
)

// TaskAssignmentModel is the per-student instance of a task. Progress is
// fully independent between assignees of the same task.
type TaskAssignmentModel struct {
	TaskAssignmentID          uuid.UUID            `gorm:"column:task_assignment_id;type:uuid;primaryKey" json:"task_assignment_id"`
	TaskAssignmentTaskID      uuid.UUID            `gorm:"column:task_assignment_task_id;type:uuid;not null;index;uniqueIndex:uq_task_assignee" json:"task_assignment_task_id"`
	TaskAssignmentAssigneeID  uuid.UUID            `gorm:"column:task_assignment_assignee_id;type:uuid;not null;index;uniqueIndex:uq_task_assignee" json:"task_assignment_assignee_id"`
	TaskAssignmentStatus      TaskAssignmentStatus `gorm:"column:task_assignment_status;type:varchar(16);not null;default:'in_progress'" json:"task_assignment_status"`
	TaskAssignmentCompletedAt *time.Time           `gorm:"column:task_assignment_completed_at" json:"task_assignment_completed_at,omitempty"`

	TaskAssignmentCreatedAt time.Time `gorm:"column:task_assignment_created_at;autoCreateTime" json:"task_assignment_created_at"`
	TaskAssignmentUpdatedAt time.Time `gorm:"column:task_assignment_updated_at;autoUpdateTime" json:"task_assignment_updated_at"`
}

func (TaskAssignmentModel) TableName() string { return "task_assignments" }

func (m *TaskAssignmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.TaskAssignmentID == uuid.Nil {
		m.TaskAssignmentID = uuid.New()
	}
	return nil
}

func (m *TaskAssignmentModel) IsCompleted() bool {
	return m.TaskAssignmentStatus == TaskAssignmentCompleted
}

// TaskKnowledgeProgressModel marks one knowledge snapshot as completed by
// one assignee. Browsing the same article outside the task never writes here.
type TaskKnowledgeProgressModel struct {
	TaskKnowledgeProgressID              uuid.UUID `gorm:"column:task_knowledge_progress_id;type:uuid;primaryKey" json:"task_knowledge_progress_id"`
	TaskKnowledgeProgressAssignmentID    uuid.UUID `gorm:"column:task_knowledge_progress_assignment_id;type:uuid;not null;index;uniqueIndex:uq_assignment_knowledge" json:"task_knowledge_progress_assignment_id"`
	TaskKnowledgeProgressTaskKnowledgeID uuid.UUID `gorm:"column:task_knowledge_progress_task_knowledge_id;type:uuid;not null;uniqueIndex:uq_assignment_knowledge" json:"task_knowledge_progress_task_knowledge_id"`
	TaskKnowledgeProgressCompletedAt     time.Time `gorm:"column:task_knowledge_progress_completed_at;autoCreateTime" json:"task_knowledge_progress_completed_at"`
}

func (TaskKnowledgeProgressModel) TableName() string { return "task_knowledge_progress" }

func (m *TaskKnowledgeProgressModel) BeforeCreate(tx *gorm.DB) error {
	if m.TaskKnowledgeProgressID == uuid.Nil {
		m.TaskKnowledgeProgressID = uuid.New()
	}
	return nil
}
