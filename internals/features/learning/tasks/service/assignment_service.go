// file: internals/features/learning/tasks/service/assignment_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/events"
	"akademiku_backend/internals/features/learning/tasks/dto"
	"akademiku_backend/internals/features/learning/tasks/model"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/helpers/dbtx"
)

type AssignmentService struct {
	DB     *gorm.DB
	Events events.Publisher
}

func NewAssignmentService(db *gorm.DB, pub events.Publisher) *AssignmentService {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &AssignmentService{DB: db, Events: pub}
}

/* =========================================================
   Reads
========================================================= */

// EffectiveStatus computes OVERDUE lazily at read time: the stored status
// stays in_progress past the due moment until someone looks. A completed
// assignment is never reported overdue. Exam tasks without an explicit
// deadline fall due when their window closes.
func EffectiveStatus(a *model.TaskAssignmentModel, task *model.TaskModel, now time.Time) model.TaskAssignmentStatus {
	if a.TaskAssignmentStatus == model.TaskAssignmentCompleted {
		return model.TaskAssignmentCompleted
	}
	due := task.TaskDeadline
	if due == nil {
		due = task.TaskExamEndAt
	}
	if due != nil && now.After(*due) {
		return model.TaskAssignmentOverdue
	}
	return a.TaskAssignmentStatus
}

func (s *AssignmentService) GetAssignment(ctx context.Context, caller helperAuth.Caller, assignmentID uuid.UUID) (*model.TaskAssignmentModel, *model.TaskModel, error) {
	var a model.TaskAssignmentModel
	if err := s.DB.WithContext(ctx).First(&a, "task_assignment_id = ?", assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.NotFound("assignment not found")
		}
		return nil, nil, err
	}
	if !caller.IsPrivileged() && a.TaskAssignmentAssigneeID != caller.UserID {
		return nil, nil, errs.PermissionDenied("not your assignment")
	}
	var task model.TaskModel
	if err := s.DB.WithContext(ctx).First(&task, "task_id = ?", a.TaskAssignmentTaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.NotFound("task not found")
		}
		return nil, nil, err
	}
	return &a, &task, nil
}

func (s *AssignmentService) ListForAssignee(ctx context.Context, assigneeID uuid.UUID, offset, limit int) ([]model.TaskAssignmentModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.TaskAssignmentModel{}).
		Where("task_assignment_assignee_id = ?", assigneeID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.TaskAssignmentModel
	if err := q.Order("task_assignment_created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Progress reports knowledge completion for one assignment.
func (s *AssignmentService) Progress(ctx context.Context, caller helperAuth.Caller, assignmentID uuid.UUID) (*dto.ProgressResponse, error) {
	a, _, err := s.GetAssignment(ctx, caller, assignmentID)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&model.TaskKnowledgeModel{}).
		Where("task_knowledge_task_id = ?", a.TaskAssignmentTaskID).
		Count(&total).Error; err != nil {
		return nil, err
	}
	var completed int64
	if err := s.DB.WithContext(ctx).Model(&model.TaskKnowledgeProgressModel{}).
		Where("task_knowledge_progress_assignment_id = ?", a.TaskAssignmentID).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	resp := &dto.ProgressResponse{
		Completed: int(completed),
		Total:     int(total),
	}
	if total > 0 {
		resp.Percentage = float64(completed) / float64(total) * 100
	}
	return resp, nil
}

/* =========================================================
   Knowledge completion marks
========================================================= */

// MarkKnowledgeCompleted records one knowledge snapshot as done for this
// assignee. Learning tasks transition to completed once every embedded
// knowledge item carries a mark; siblings of the same task are untouched.
func (s *AssignmentService) MarkKnowledgeCompleted(ctx context.Context, caller helperAuth.Caller, assignmentID, taskKnowledgeID uuid.UUID) error {
	var completedNow *model.TaskAssignmentModel

	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var a model.TaskAssignmentModel
		if err := tx.First(&a, "task_assignment_id = ?", assignmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("assignment not found")
			}
			return err
		}
		if a.TaskAssignmentAssigneeID != caller.UserID {
			return errs.PermissionDenied("not your assignment")
		}

		var link model.TaskKnowledgeModel
		if err := tx.First(&link, "task_knowledge_id = ?", taskKnowledgeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("task knowledge item not found")
			}
			return err
		}
		if link.TaskKnowledgeTaskID != a.TaskAssignmentTaskID {
			return errs.InvalidOperation("knowledge item does not belong to this task")
		}

		mark := model.TaskKnowledgeProgressModel{
			TaskKnowledgeProgressAssignmentID:    a.TaskAssignmentID,
			TaskKnowledgeProgressTaskKnowledgeID: link.TaskKnowledgeID,
		}
		if err := tx.Create(&mark).Error; err != nil {
			if dbtx.IsConflict(err) {
				return nil // already marked, idempotent
			}
			return err
		}

		var task model.TaskModel
		if err := tx.First(&task, "task_id = ?", a.TaskAssignmentTaskID).Error; err != nil {
			return err
		}
		if task.TaskType != model.TaskTypeLearning {
			return nil
		}

		done, err := s.allKnowledgeMarked(tx, &a)
		if err != nil {
			return err
		}
		if done {
			fresh, err := s.CompleteInTx(tx, a.TaskAssignmentID, time.Now().UTC())
			if err != nil {
				return err
			}
			if fresh {
				completedNow = &a
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if completedNow != nil {
		s.Events.Publish(ctx, events.Event{
			Name:         events.AssignmentCompleted,
			TaskID:       completedNow.TaskAssignmentTaskID,
			AssignmentID: completedNow.TaskAssignmentID,
			AssigneeID:   completedNow.TaskAssignmentAssigneeID,
			OccurredAt:   time.Now().UTC(),
		})
	}
	return nil
}

/* =========================================================
   Completion primitive (also used by the grading machine)
========================================================= */

// CompleteInTx marks the assignment completed if it is not already. Returns
// true when this call did the transition, so the caller can emit the event
// after commit. Never reverts an existing completion.
func (s *AssignmentService) CompleteInTx(tx *gorm.DB, assignmentID uuid.UUID, now time.Time) (bool, error) {
	res := tx.Model(&model.TaskAssignmentModel{}).
		Where("task_assignment_id = ? AND task_assignment_status <> ?", assignmentID, model.TaskAssignmentCompleted).
		Updates(map[string]any{
			"task_assignment_status":       model.TaskAssignmentCompleted,
			"task_assignment_completed_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// EmitCompleted lets the grading machine publish the completion event after
// its own transaction committed.
func (s *AssignmentService) EmitCompleted(ctx context.Context, a *model.TaskAssignmentModel) {
	s.Events.Publish(ctx, events.Event{
		Name:         events.AssignmentCompleted,
		TaskID:       a.TaskAssignmentTaskID,
		AssignmentID: a.TaskAssignmentID,
		AssigneeID:   a.TaskAssignmentAssigneeID,
		OccurredAt:   time.Now().UTC(),
	})
}

func (s *AssignmentService) allKnowledgeMarked(tx *gorm.DB, a *model.TaskAssignmentModel) (bool, error) {
	var total int64
	if err := tx.Model(&model.TaskKnowledgeModel{}).
		Where("task_knowledge_task_id = ?", a.TaskAssignmentTaskID).
		Count(&total).Error; err != nil {
		return false, err
	}
	var completed int64
	if err := tx.Model(&model.TaskKnowledgeProgressModel{}).
		Where("task_knowledge_progress_assignment_id = ?", a.TaskAssignmentID).
		Count(&completed).Error; err != nil {
		return false, err
	}
	return total > 0 && completed >= total, nil
}
