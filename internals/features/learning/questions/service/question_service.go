// file: internals/features/learning/questions/service/question_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/questions/dto"
	"akademiku_backend/internals/features/learning/questions/model"
	"akademiku_backend/internals/features/learning/versioning"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/helpers/dbtx"
)

// ReferenceGuard reports whether a question resource is still pinned by any
// quiz composition. Implemented by the quiz service.
type ReferenceGuard interface {
	QuestionReferenced(tx *gorm.DB, resourceID uuid.UUID) (bool, error)
}

type QuestionService struct {
	DB    *gorm.DB
	Store *versioning.Store[model.QuestionModel]
	Guard ReferenceGuard
}

func NewQuestionService(db *gorm.DB, guard ReferenceGuard) *QuestionService {
	return &QuestionService{
		DB:    db,
		Store: versioning.NewStore[model.QuestionModel](db, model.Cols),
		Guard: guard,
	}
}

func (s *QuestionService) CreateDraft(ctx context.Context, caller helperAuth.Caller, req *dto.CreateQuestionRequest) (*model.QuestionModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may author questions")
	}
	m := req.ToModel(caller.UserID)
	if err := m.ValidateShape(); err != nil {
		return nil, errs.InvalidOperation(err.Error())
	}
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (s *QuestionService) CreateRevision(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) (*model.QuestionModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may revise questions")
	}
	var draft *model.QuestionModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var base model.QuestionModel
		err := tx.Where("question_resource_id = ? AND question_is_current = ?", resourceID, true).
			First(&base).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("no published version for this question")
			}
			return err
		}
		open, err := s.Store.HasOpenDraft(tx, resourceID)
		if err != nil {
			return err
		}
		if open {
			return errs.InvalidOperation("an open draft already exists for this question")
		}
		next, err := s.Store.NextVersionNumber(tx, resourceID)
		if err != nil {
			return err
		}

		d := base
		d.QuestionID = uuid.New()
		d.QuestionVersionNumber = next
		d.QuestionStatus = versioning.StatusDraft
		d.QuestionIsCurrent = false
		d.QuestionSourceVersionID = &base.QuestionID
		d.QuestionPublishedAt = nil
		d.QuestionAuthorID = caller.UserID
		d.QuestionCreatedAt = time.Time{}
		d.QuestionUpdatedAt = time.Time{}

		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		draft = &d
		return nil
	})
	if err != nil {
		if dbtx.IsConflict(err) {
			return nil, errs.InvalidOperation("an open draft already exists for this question")
		}
		return nil, err
	}
	return draft, nil
}

func (s *QuestionService) UpdateDraft(ctx context.Context, caller helperAuth.Caller, questionID uuid.UUID, req *dto.UpdateQuestionRequest) (*model.QuestionModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may edit questions")
	}
	var out *model.QuestionModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var q model.QuestionModel
		if err := tx.First(&q, "question_id = ?", questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("question version not found")
			}
			return err
		}
		if !q.IsDraft() {
			return errs.InvalidOperation("published questions are immutable; create a revision instead")
		}
		req.Apply(&q)
		if err := q.ValidateShape(); err != nil {
			return errs.InvalidOperation(err.Error())
		}
		if err := tx.Save(&q).Error; err != nil {
			return err
		}
		out = &q
		return nil
	})
	return out, err
}

func (s *QuestionService) Publish(ctx context.Context, caller helperAuth.Caller, questionID uuid.UUID) (*model.QuestionModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may publish questions")
	}
	var out *model.QuestionModel
	err := dbtx.WithRetry(ctx, s.DB, func(tx *gorm.DB) error {
		var q model.QuestionModel
		if err := tx.First(&q, "question_id = ?", questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("question version not found")
			}
			return err
		}
		if !q.IsDraft() {
			return errs.InvalidOperation("only a draft can be published")
		}
		if err := q.ValidateShape(); err != nil {
			return errs.InvalidOperation(err.Error())
		}
		now := time.Now().UTC()
		if err := s.Store.Publish(tx, q.QuestionResourceID, q.QuestionID, now); err != nil {
			return err
		}
		q.QuestionStatus = versioning.StatusPublished
		q.QuestionIsCurrent = true
		q.QuestionPublishedAt = &now
		out = &q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *QuestionService) GetCurrent(ctx context.Context, resourceID uuid.UUID) (*model.QuestionModel, error) {
	return s.Store.GetCurrent(ctx, resourceID)
}

func (s *QuestionService) GetVersion(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID, version int) (*model.QuestionModel, error) {
	q, err := s.Store.GetVersion(ctx, resourceID, version)
	if err != nil {
		return nil, err
	}
	if !caller.IsPrivileged() && !(q.QuestionStatus == versioning.StatusPublished && q.QuestionIsCurrent) {
		return nil, errs.PermissionDenied("only the current published version is visible")
	}
	return q, nil
}

func (s *QuestionService) ListVersions(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) ([]model.QuestionModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("version history requires elevated privilege")
	}
	return s.Store.ListVersions(ctx, resourceID)
}

func (s *QuestionService) ListCurrent(ctx context.Context, offset, limit int) ([]model.QuestionModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.QuestionModel{}).
		Where("question_is_current = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.QuestionModel
	if err := q.Order("question_published_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Delete removes every version of the question unless a quiz composition
// still pins it; check and delete share one transaction.
func (s *QuestionService) Delete(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) error {
	if !caller.IsPrivileged() {
		return errs.PermissionDenied("only teachers and above may delete questions")
	}
	return dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.QuestionModel{}).
			Where("question_resource_id = ?", resourceID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("question not found")
		}
		referenced, err := s.Guard.QuestionReferenced(tx, resourceID)
		if err != nil {
			return err
		}
		if referenced {
			return errs.ResourceReferenced("question is referenced by at least one quiz and cannot be deleted")
		}
		return tx.Where("question_resource_id = ?", resourceID).
			Delete(&model.QuestionModel{}).Error
	})
}
