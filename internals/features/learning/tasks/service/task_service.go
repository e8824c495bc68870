// file: internals/features/learning/tasks/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/events"
	kmodel "akademiku_backend/internals/features/learning/knowledge/model"
	qmodel "akademiku_backend/internals/features/learning/questions/model"
	qzmodel "akademiku_backend/internals/features/learning/quizzes/model"
	"akademiku_backend/internals/features/learning/tasks/dto"
	"akademiku_backend/internals/features/learning/tasks/model"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/helpers/dbtx"
)

type TaskService struct {
	DB     *gorm.DB
	Events events.Publisher
}

func NewTaskService(db *gorm.DB, pub events.Publisher) *TaskService {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &TaskService{DB: db, Events: pub}
}

/* =========================================================
   Create: snapshot + fan-out, one transaction
========================================================= */

// CreateTask composes a task from the CURRENT published version of every
// referenced resource, freezes snapshots, and fans assignments out to all
// assignees. Everything happens in one transaction so a concurrent resource
// delete cannot race the linking.
func (s *TaskService) CreateTask(ctx context.Context, caller helperAuth.Caller, req *dto.CreateTaskRequest) (*model.TaskModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may create tasks")
	}
	taskType := model.TaskType(req.TaskType)
	if !taskType.Valid() {
		return nil, errs.InvalidOperation("unknown task type")
	}
	if taskType == model.TaskTypeExam {
		if req.TaskExamStartAt == nil || req.TaskExamEndAt == nil {
			return nil, errs.InvalidOperation("exam tasks need an exam window")
		}
		if !req.TaskExamEndAt.After(*req.TaskExamStartAt) {
			return nil, errs.InvalidOperation("exam window end must be after start")
		}
	}
	if len(req.KnowledgeResourceIDs) == 0 && len(req.QuizResourceIDs) == 0 {
		return nil, errs.InvalidOperation("a task needs at least one knowledge item or quiz")
	}

	task := &model.TaskModel{
		TaskTitle:       req.TaskTitle,
		TaskDescription: req.TaskDescription,
		TaskType:        taskType,
		TaskDeadline:    req.TaskDeadline,
		TaskExamStartAt: req.TaskExamStartAt,
		TaskExamEndAt:   req.TaskExamEndAt,
		TaskAuthorID:    caller.UserID,
	}

	var created []model.TaskAssignmentModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		for i, rid := range req.KnowledgeResourceIDs {
			link, err := s.buildKnowledgeLink(tx, task.TaskID, rid, i)
			if err != nil {
				return err
			}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}

		for i, rid := range req.QuizResourceIDs {
			link, err := s.buildQuizLink(tx, task.TaskID, rid, i)
			if err != nil {
				return err
			}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}

		for _, assignee := range req.AssigneeIDs {
			a := model.TaskAssignmentModel{
				TaskAssignmentTaskID:     task.TaskID,
				TaskAssignmentAssigneeID: assignee,
				TaskAssignmentStatus:     model.TaskAssignmentInProgress,
			}
			if err := tx.Create(&a).Error; err != nil {
				if dbtx.IsConflict(err) {
					return errs.InvalidOperation(fmt.Sprintf("assignee %s listed twice", assignee))
				}
				return err
			}
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, a := range created {
		s.Events.Publish(ctx, events.Event{
			Name:         events.AssignmentCreated,
			TaskID:       task.TaskID,
			AssignmentID: a.TaskAssignmentID,
			AssigneeID:   a.TaskAssignmentAssigneeID,
			OccurredAt:   now,
		})
	}
	log.Printf("[TaskService] task %s created with %d assignments", task.TaskID, len(created))
	return task, nil
}

/* =========================================================
   Reads
========================================================= */

func (s *TaskService) GetTask(ctx context.Context, taskID uuid.UUID) (*model.TaskModel, []model.TaskKnowledgeModel, []model.TaskQuizModel, error) {
	var task model.TaskModel
	if err := s.DB.WithContext(ctx).First(&task, "task_id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, errs.NotFound("task not found")
		}
		return nil, nil, nil, err
	}

	var kn []model.TaskKnowledgeModel
	if err := s.DB.WithContext(ctx).
		Where("task_knowledge_task_id = ?", taskID).
		Order("task_knowledge_order ASC").Find(&kn).Error; err != nil {
		return nil, nil, nil, err
	}
	var qz []model.TaskQuizModel
	if err := s.DB.WithContext(ctx).
		Where("task_quiz_task_id = ?", taskID).
		Order("task_quiz_order ASC").Find(&qz).Error; err != nil {
		return nil, nil, nil, err
	}
	return &task, kn, qz, nil
}

func (s *TaskService) ListTasks(ctx context.Context, offset, limit int) ([]model.TaskModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.TaskModel{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.TaskModel
	if err := q.Order("task_created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *TaskService) CloseTask(ctx context.Context, caller helperAuth.Caller, taskID uuid.UUID) error {
	if !caller.IsPrivileged() {
		return errs.PermissionDenied("only teachers and above may close tasks")
	}
	res := s.DB.WithContext(ctx).Model(&model.TaskModel{}).
		Where("task_id = ?", taskID).
		Update("task_closed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("task not found")
	}
	return nil
}

// DeleteTask soft-deletes the task. Snapshot link rows stay behind so the
// deletion guard keeps protecting the resources they pin.
func (s *TaskService) DeleteTask(ctx context.Context, caller helperAuth.Caller, taskID uuid.UUID) error {
	if !caller.IsPrivileged() {
		return errs.PermissionDenied("only teachers and above may delete tasks")
	}
	res := s.DB.WithContext(ctx).Where("task_id = ?", taskID).Delete(&model.TaskModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("task not found")
	}
	return nil
}

/* =========================================================
   Deletion guards (any version of the resource counts)
========================================================= */

func (s *TaskService) KnowledgeReferenced(tx *gorm.DB, resourceID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&model.TaskKnowledgeModel{}).
		Where("task_knowledge_resource_id = ?", resourceID).
		Count(&n).Error
	return n > 0, err
}

func (s *TaskService) QuizReferenced(tx *gorm.DB, resourceID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&model.TaskQuizModel{}).
		Where("task_quiz_resource_id = ?", resourceID).
		Count(&n).Error
	return n > 0, err
}

/* =========================================================
   internal: snapshot link builders
========================================================= */

func (s *TaskService) buildKnowledgeLink(tx *gorm.DB, taskID, resourceID uuid.UUID, order int) (*model.TaskKnowledgeModel, error) {
	var k kmodel.KnowledgeModel
	err := tx.Where("knowledge_resource_id = ? AND knowledge_is_current = ?", resourceID, true).
		First(&k).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(fmt.Sprintf("knowledge %s has no published version", resourceID))
		}
		return nil, err
	}

	var tags []string
	if err := tx.Model(&kmodel.KnowledgeTagModel{}).
		Select("tags.tag_name").
		Joins("JOIN tags ON tags.tag_id = knowledge_tags.knowledge_tag_tag_id").
		Where("knowledge_tags.knowledge_tag_resource_id = ?", resourceID).
		Order("tags.tag_name").
		Scan(&tags).Error; err != nil {
		return nil, err
	}

	payload, err := model.MarshalSnapshot(BuildKnowledgeSnapshot(&k, tags))
	if err != nil {
		return nil, err
	}
	return &model.TaskKnowledgeModel{
		TaskKnowledgeTaskID:        taskID,
		TaskKnowledgeOrder:         order,
		TaskKnowledgeResourceID:    k.KnowledgeResourceID,
		TaskKnowledgeVersionNumber: k.KnowledgeVersionNumber,
		TaskKnowledgeSnapshot:      payload,
	}, nil
}

func (s *TaskService) buildQuizLink(tx *gorm.DB, taskID, resourceID uuid.UUID, order int) (*model.TaskQuizModel, error) {
	var quiz qzmodel.QuizModel
	err := tx.Where("quiz_resource_id = ? AND quiz_is_current = ?", resourceID, true).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound(fmt.Sprintf("quiz %s has no published version", resourceID))
		}
		return nil, err
	}

	var links []qzmodel.QuizQuestionModel
	if err := tx.Where("quiz_question_quiz_id = ?", quiz.QuizID).
		Order("quiz_question_order ASC").Find(&links).Error; err != nil {
		return nil, err
	}

	// expand each composition entry to its current published question version
	questions := make([]qmodel.QuestionModel, 0, len(links))
	for _, l := range links {
		var qu qmodel.QuestionModel
		err := tx.Where("question_resource_id = ? AND question_is_current = ?",
			l.QuizQuestionQuestionResourceID, true).First(&qu).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.NotFound(fmt.Sprintf("question %s has no published version", l.QuizQuestionQuestionResourceID))
			}
			return nil, err
		}
		questions = append(questions, qu)
	}

	payload, err := model.MarshalSnapshot(BuildQuizSnapshot(&quiz, questions))
	if err != nil {
		return nil, err
	}
	return &model.TaskQuizModel{
		TaskQuizTaskID:        taskID,
		TaskQuizOrder:         order,
		TaskQuizResourceID:    quiz.QuizResourceID,
		TaskQuizVersionNumber: quiz.QuizVersionNumber,
		TaskQuizSnapshot:      payload,
	}, nil
}
