// file: internals/features/learning/knowledge/model/tag_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagModel is a line-type label. Snapshots denormalize the tag NAME, so
// renaming a tag never rewrites history.
type TagModel struct {
	TagID        uuid.UUID `gorm:"column:tag_id;type:uuid;primaryKey" json:"tag_id"`
	TagName      string    `gorm:"column:tag_name;type:varchar(64);not null;uniqueIndex" json:"tag_name"`
	TagCreatedAt time.Time `gorm:"column:tag_created_at;autoCreateTime" json:"tag_created_at"`
}

func (TagModel) TableName() string { return "tags" }

func (m *TagModel) BeforeCreate(tx *gorm.DB) error {
	if m.TagID == uuid.Nil {
		m.TagID = uuid.New()
	}
	return nil
}

// KnowledgeTagModel attaches a tag to a knowledge article's logical identity
// (resource_id), not to one version row. One typed join table per taggable
// kind instead of a polymorphic foreign key.
type KnowledgeTagModel struct {
	KnowledgeTagID         uuid.UUID `gorm:"column:knowledge_tag_id;type:uuid;primaryKey" json:"knowledge_tag_id"`
	KnowledgeTagTagID      uuid.UUID `gorm:"column:knowledge_tag_tag_id;type:uuid;not null;uniqueIndex:uq_knowledge_tag" json:"knowledge_tag_tag_id"`
	KnowledgeTagResourceID uuid.UUID `gorm:"column:knowledge_tag_resource_id;type:uuid;not null;uniqueIndex:uq_knowledge_tag;index" json:"knowledge_tag_resource_id"`
	KnowledgeTagCreatedAt  time.Time `gorm:"column:knowledge_tag_created_at;autoCreateTime" json:"knowledge_tag_created_at"`
}

func (KnowledgeTagModel) TableName() string { return "knowledge_tags" }

func (m *KnowledgeTagModel) BeforeCreate(tx *gorm.DB) error {
	if m.KnowledgeTagID == uuid.Nil {
		m.KnowledgeTagID = uuid.New()
	}
	return nil
}
