// file: internals/features/learning/quizzes/service/quiz_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/quizzes/dto"
	"akademiku_backend/internals/features/learning/quizzes/model"
	"akademiku_backend/internals/features/learning/versioning"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/helpers/dbtx"
)

// ReferenceGuard reports whether any task has snapshotted this quiz.
// Implemented by the task service.
type ReferenceGuard interface {
	QuizReferenced(tx *gorm.DB, resourceID uuid.UUID) (bool, error)
}

type QuizService struct {
	DB    *gorm.DB
	Store *versioning.Store[model.QuizModel]
	Guard ReferenceGuard
}

func NewQuizService(db *gorm.DB, guard ReferenceGuard) *QuizService {
	return &QuizService{
		DB:    db,
		Store: versioning.NewStore[model.QuizModel](db, model.Cols),
		Guard: guard,
	}
}

/* =========================================================
   Lifecycle
========================================================= */

func (s *QuizService) CreateDraft(ctx context.Context, caller helperAuth.Caller, req *dto.CreateQuizRequest) (*model.QuizModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may author quizzes")
	}
	var out *model.QuizModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		m := req.ToModel(caller.UserID)
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if err := s.replaceComposition(tx, m.QuizID, req.QuizQuestionResourceIDs); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

func (s *QuizService) CreateRevision(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) (*model.QuizModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may revise quizzes")
	}
	var draft *model.QuizModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var base model.QuizModel
		err := tx.Where("quiz_resource_id = ? AND quiz_is_current = ?", resourceID, true).
			First(&base).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("no published version for this quiz")
			}
			return err
		}
		open, err := s.Store.HasOpenDraft(tx, resourceID)
		if err != nil {
			return err
		}
		if open {
			return errs.InvalidOperation("an open draft already exists for this quiz")
		}
		next, err := s.Store.NextVersionNumber(tx, resourceID)
		if err != nil {
			return err
		}

		d := base
		d.QuizID = uuid.New()
		d.QuizVersionNumber = next
		d.QuizStatus = versioning.StatusDraft
		d.QuizIsCurrent = false
		d.QuizSourceVersionID = &base.QuizID
		d.QuizPublishedAt = nil
		d.QuizAuthorID = caller.UserID
		d.QuizCreatedAt = time.Time{}
		d.QuizUpdatedAt = time.Time{}

		if err := tx.Create(&d).Error; err != nil {
			return err
		}

		// carry the composition into the new draft
		var links []model.QuizQuestionModel
		if err := tx.Where("quiz_question_quiz_id = ?", base.QuizID).
			Order("quiz_question_order ASC").Find(&links).Error; err != nil {
			return err
		}
		for i := range links {
			links[i].QuizQuestionID = uuid.New()
			links[i].QuizQuestionQuizID = d.QuizID
			links[i].QuizQuestionCreatedAt = time.Time{}
		}
		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
		draft = &d
		return nil
	})
	if err != nil {
		if dbtx.IsConflict(err) {
			return nil, errs.InvalidOperation("an open draft already exists for this quiz")
		}
		return nil, err
	}
	return draft, nil
}

func (s *QuizService) UpdateDraft(ctx context.Context, caller helperAuth.Caller, quizID uuid.UUID, req *dto.UpdateQuizRequest) (*model.QuizModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may edit quizzes")
	}
	var out *model.QuizModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var q model.QuizModel
		if err := tx.First(&q, "quiz_id = ?", quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("quiz version not found")
			}
			return err
		}
		if !q.IsDraft() {
			return errs.InvalidOperation("published quizzes are immutable; create a revision instead")
		}
		req.Apply(&q)
		if err := tx.Save(&q).Error; err != nil {
			return err
		}
		if req.QuizQuestionResourceIDs != nil {
			if err := tx.Where("quiz_question_quiz_id = ?", q.QuizID).
				Delete(&model.QuizQuestionModel{}).Error; err != nil {
				return err
			}
			if err := s.replaceComposition(tx, q.QuizID, req.QuizQuestionResourceIDs); err != nil {
				return err
			}
		}
		out = &q
		return nil
	})
	return out, err
}

func (s *QuizService) Publish(ctx context.Context, caller helperAuth.Caller, quizID uuid.UUID) (*model.QuizModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may publish quizzes")
	}
	var out *model.QuizModel
	err := dbtx.WithRetry(ctx, s.DB, func(tx *gorm.DB) error {
		var q model.QuizModel
		if err := tx.First(&q, "quiz_id = ?", quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("quiz version not found")
			}
			return err
		}
		if !q.IsDraft() {
			return errs.InvalidOperation("only a draft can be published")
		}
		now := time.Now().UTC()
		if err := s.Store.Publish(tx, q.QuizResourceID, q.QuizID, now); err != nil {
			return err
		}
		q.QuizStatus = versioning.StatusPublished
		q.QuizIsCurrent = true
		q.QuizPublishedAt = &now
		out = &q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

/* =========================================================
   Reads
========================================================= */

func (s *QuizService) GetCurrent(ctx context.Context, resourceID uuid.UUID) (*model.QuizModel, error) {
	return s.Store.GetCurrent(ctx, resourceID)
}

func (s *QuizService) GetVersion(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID, version int) (*model.QuizModel, error) {
	q, err := s.Store.GetVersion(ctx, resourceID, version)
	if err != nil {
		return nil, err
	}
	if !caller.IsPrivileged() && !(q.QuizStatus == versioning.StatusPublished && q.QuizIsCurrent) {
		return nil, errs.PermissionDenied("only the current published version is visible")
	}
	return q, nil
}

func (s *QuizService) ListVersions(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) ([]model.QuizModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("version history requires elevated privilege")
	}
	return s.Store.ListVersions(ctx, resourceID)
}

func (s *QuizService) ListCurrent(ctx context.Context, offset, limit int) ([]model.QuizModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.QuizModel{}).
		Where("quiz_is_current = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.QuizModel
	if err := q.Order("quiz_published_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Composition returns the ordered question links of one quiz version row.
func (s *QuizService) Composition(ctx context.Context, quizID uuid.UUID) ([]model.QuizQuestionModel, error) {
	var links []model.QuizQuestionModel
	err := s.DB.WithContext(ctx).
		Where("quiz_question_quiz_id = ?", quizID).
		Order("quiz_question_order ASC").
		Find(&links).Error
	return links, err
}

/* =========================================================
   Deletion + guards
========================================================= */

func (s *QuizService) Delete(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) error {
	if !caller.IsPrivileged() {
		return errs.PermissionDenied("only teachers and above may delete quizzes")
	}
	return dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var versions []model.QuizModel
		if err := tx.Where("quiz_resource_id = ?", resourceID).Find(&versions).Error; err != nil {
			return err
		}
		if len(versions) == 0 {
			return errs.NotFound("quiz not found")
		}
		referenced, err := s.Guard.QuizReferenced(tx, resourceID)
		if err != nil {
			return err
		}
		if referenced {
			return errs.ResourceReferenced("quiz is referenced by at least one task and cannot be deleted")
		}
		ids := make([]uuid.UUID, 0, len(versions))
		for _, v := range versions {
			ids = append(ids, v.QuizID)
		}
		if err := tx.Where("quiz_question_quiz_id IN ?", ids).
			Delete(&model.QuizQuestionModel{}).Error; err != nil {
			return err
		}
		return tx.Where("quiz_resource_id = ?", resourceID).
			Delete(&model.QuizModel{}).Error
	})
}

// QuestionReferenced satisfies the question service's ReferenceGuard: a
// question pinned by any quiz version (draft or published) must survive.
func (s *QuizService) QuestionReferenced(tx *gorm.DB, questionResourceID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&model.QuizQuestionModel{}).
		Where("quiz_question_question_resource_id = ?", questionResourceID).
		Count(&n).Error
	return n > 0, err
}

/* =========================================================
   internal
========================================================= */

func (s *QuizService) replaceComposition(tx *gorm.DB, quizID uuid.UUID, questionResourceIDs []uuid.UUID) error {
	for i, rid := range questionResourceIDs {
		link := model.QuizQuestionModel{
			QuizQuestionQuizID:             quizID,
			QuizQuestionQuestionResourceID: rid,
			QuizQuestionOrder:              i,
		}
		if err := tx.Create(&link).Error; err != nil {
			if dbtx.IsConflict(err) {
				return errs.InvalidOperation("duplicate question in quiz composition")
			}
			return err
		}
	}
	return nil
}
