// file: internals/features/learning/knowledge/service/knowledge_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/knowledge/dto"
	"akademiku_backend/internals/features/learning/knowledge/model"
	"akademiku_backend/internals/features/learning/versioning"
	helperAuth "akademiku_backend/internals/helpers/auth"
	"akademiku_backend/internals/helpers/dbtx"
)

// ReferenceGuard answers whether any task has snapshotted this resource.
// Implemented by the task service; an interface here keeps the dependency
// pointing the right way.
type ReferenceGuard interface {
	KnowledgeReferenced(tx *gorm.DB, resourceID uuid.UUID) (bool, error)
}

type KnowledgeService struct {
	DB    *gorm.DB
	Store *versioning.Store[model.KnowledgeModel]
	Guard ReferenceGuard
}

func NewKnowledgeService(db *gorm.DB, guard ReferenceGuard) *KnowledgeService {
	return &KnowledgeService{
		DB:    db,
		Store: versioning.NewStore[model.KnowledgeModel](db, model.Cols),
		Guard: guard,
	}
}

/* =========================================================
   Lifecycle
========================================================= */

// CreateDraft starts a brand-new article at version 1.
func (s *KnowledgeService) CreateDraft(ctx context.Context, caller helperAuth.Caller, req *dto.CreateKnowledgeRequest) (*model.KnowledgeModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may author knowledge")
	}
	m := req.ToModel(caller.UserID)
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// CreateRevision derives a new draft from a published version. At most one
// open draft per resource; a second concurrent attempt loses on the partial
// unique index and is reported as InvalidOperation.
func (s *KnowledgeService) CreateRevision(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) (*model.KnowledgeModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may revise knowledge")
	}

	var draft *model.KnowledgeModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		base, err := s.currentInTx(tx, resourceID)
		if err != nil {
			return err
		}
		open, err := s.Store.HasOpenDraft(tx, resourceID)
		if err != nil {
			return err
		}
		if open {
			return errs.InvalidOperation("an open draft already exists for this knowledge")
		}
		next, err := s.Store.NextVersionNumber(tx, resourceID)
		if err != nil {
			return err
		}

		d := *base // content copied as editing starting point
		d.KnowledgeID = uuid.New()
		d.KnowledgeVersionNumber = next
		d.KnowledgeStatus = versioning.StatusDraft
		d.KnowledgeIsCurrent = false
		d.KnowledgeSourceVersionID = &base.KnowledgeID
		d.KnowledgePublishedAt = nil
		d.KnowledgeAuthorID = caller.UserID
		d.KnowledgeCreatedAt = time.Time{}
		d.KnowledgeUpdatedAt = time.Time{}

		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		draft = &d
		return nil
	})
	if err != nil {
		if dbtx.IsConflict(err) {
			return nil, errs.InvalidOperation("an open draft already exists for this knowledge")
		}
		return nil, err
	}
	return draft, nil
}

// UpdateDraft edits an open draft in place. Published rows are immutable.
func (s *KnowledgeService) UpdateDraft(ctx context.Context, caller helperAuth.Caller, knowledgeID uuid.UUID, req *dto.UpdateKnowledgeRequest) (*model.KnowledgeModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may edit knowledge")
	}
	var out *model.KnowledgeModel
	err := dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var k model.KnowledgeModel
		if err := tx.First(&k, "knowledge_id = ?", knowledgeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("knowledge version not found")
			}
			return err
		}
		if !k.IsDraft() {
			return errs.InvalidOperation("published knowledge is immutable; create a revision instead")
		}
		req.Apply(&k)
		if err := tx.Save(&k).Error; err != nil {
			return err
		}
		out = &k
		return nil
	})
	return out, err
}

// Publish flips the draft to the published current version atomically.
func (s *KnowledgeService) Publish(ctx context.Context, caller helperAuth.Caller, knowledgeID uuid.UUID) (*model.KnowledgeModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("only teachers and above may publish knowledge")
	}
	var out *model.KnowledgeModel
	err := dbtx.WithRetry(ctx, s.DB, func(tx *gorm.DB) error {
		var k model.KnowledgeModel
		if err := tx.First(&k, "knowledge_id = ?", knowledgeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("knowledge version not found")
			}
			return err
		}
		if !k.IsDraft() {
			return errs.InvalidOperation("only a draft can be published")
		}
		now := time.Now().UTC()
		if err := s.Store.Publish(tx, k.KnowledgeResourceID, k.KnowledgeID, now); err != nil {
			return err
		}
		k.KnowledgeStatus = versioning.StatusPublished
		k.KnowledgeIsCurrent = true
		k.KnowledgePublishedAt = &now
		out = &k
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

/* =========================================================
   Reads (visibility applied here, store stays agnostic)
========================================================= */

func (s *KnowledgeService) GetCurrent(ctx context.Context, resourceID uuid.UUID) (*model.KnowledgeModel, error) {
	return s.Store.GetCurrent(ctx, resourceID)
}

func (s *KnowledgeService) GetVersion(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID, version int) (*model.KnowledgeModel, error) {
	k, err := s.Store.GetVersion(ctx, resourceID, version)
	if err != nil {
		return nil, err
	}
	if !caller.IsPrivileged() && !(k.KnowledgeStatus == versioning.StatusPublished && k.KnowledgeIsCurrent) {
		return nil, errs.PermissionDenied("only the current published version is visible")
	}
	return k, nil
}

func (s *KnowledgeService) ListVersions(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) ([]model.KnowledgeModel, error) {
	if !caller.IsPrivileged() {
		return nil, errs.PermissionDenied("version history requires elevated privilege")
	}
	return s.Store.ListVersions(ctx, resourceID)
}

// ListCurrent pages through current published articles for browsing.
func (s *KnowledgeService) ListCurrent(ctx context.Context, offset, limit int) ([]model.KnowledgeModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.KnowledgeModel{}).
		Where("knowledge_is_current = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.KnowledgeModel
	if err := q.Order("knowledge_published_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

/* =========================================================
   Deletion (guarded, all-or-nothing)
========================================================= */

// Delete removes the whole resource (every version) plus tag links, unless
// any task still snapshots it. Check and delete share one transaction so a
// concurrent task link cannot slip between them.
func (s *KnowledgeService) Delete(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID) error {
	if !caller.IsPrivileged() {
		return errs.PermissionDenied("only teachers and above may delete knowledge")
	}
	return dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.KnowledgeModel{}).
			Where("knowledge_resource_id = ?", resourceID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("knowledge not found")
		}
		referenced, err := s.Guard.KnowledgeReferenced(tx, resourceID)
		if err != nil {
			return err
		}
		if referenced {
			return errs.ResourceReferenced("knowledge is referenced by at least one task and cannot be deleted")
		}
		if err := tx.Where("knowledge_tag_resource_id = ?", resourceID).
			Delete(&model.KnowledgeTagModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("knowledge_resource_id = ?", resourceID).
			Delete(&model.KnowledgeModel{}).Error; err != nil {
			return err
		}
		log.Printf("[KnowledgeService] deleted resource %s (%d versions)", resourceID, n)
		return nil
	})
}

/* =========================================================
   Tags
========================================================= */

func (s *KnowledgeService) AttachTag(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID, tagName string) error {
	if !caller.IsPrivileged() {
		return errs.PermissionDenied("only teachers and above may tag knowledge")
	}
	return dbtx.WithTx(ctx, s.DB, func(tx *gorm.DB) error {
		var tag model.TagModel
		err := tx.Where("tag_name = ?", tagName).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = model.TagModel{TagName: tagName}
			err = tx.Create(&tag).Error
		}
		if err != nil {
			return err
		}
		link := model.KnowledgeTagModel{
			KnowledgeTagTagID:      tag.TagID,
			KnowledgeTagResourceID: resourceID,
		}
		if err := tx.Create(&link).Error; err != nil {
			if dbtx.IsConflict(err) {
				return nil // already attached
			}
			return err
		}
		return nil
	})
}

func (s *KnowledgeService) DetachTag(ctx context.Context, caller helperAuth.Caller, resourceID uuid.UUID, tagName string) error {
	if !caller.IsPrivileged() {
		return errs.PermissionDenied("only teachers and above may tag knowledge")
	}
	return s.DB.WithContext(ctx).
		Where("knowledge_tag_resource_id = ? AND knowledge_tag_tag_id IN (?)",
			resourceID,
			s.DB.Model(&model.TagModel{}).Select("tag_id").Where("tag_name = ?", tagName),
		).
		Delete(&model.KnowledgeTagModel{}).Error
}

// TagNames resolves the denormalized tag name list for snapshots/responses.
func (s *KnowledgeService) TagNames(ctx context.Context, resourceID uuid.UUID) ([]string, error) {
	var names []string
	err := s.DB.WithContext(ctx).Model(&model.KnowledgeTagModel{}).
		Select("tags.tag_name").
		Joins("JOIN tags ON tags.tag_id = knowledge_tags.knowledge_tag_tag_id").
		Where("knowledge_tags.knowledge_tag_resource_id = ?", resourceID).
		Order("tags.tag_name").
		Scan(&names).Error
	return names, err
}

/* =========================================================
   internal
========================================================= */

func (s *KnowledgeService) currentInTx(tx *gorm.DB, resourceID uuid.UUID) (*model.KnowledgeModel, error) {
	var k model.KnowledgeModel
	err := tx.Where("knowledge_resource_id = ? AND knowledge_is_current = ?", resourceID, true).
		First(&k).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("no published version for this knowledge")
		}
		return nil, err
	}
	return &k, nil
}
