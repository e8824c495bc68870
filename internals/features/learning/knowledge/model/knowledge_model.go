// file: internals/features/learning/knowledge/model/knowledge_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/versioning"
)

type KnowledgeType string

const (
	KnowledgeTypeOther     KnowledgeType = "other"
	KnowledgeTypeEmergency KnowledgeType = "emergency"
)

// KnowledgeModel is one version row of a knowledge article. All versions of
// the same article share knowledge_resource_id; rows are append-only once
// published.
type KnowledgeModel struct {
	KnowledgeID              uuid.UUID                 `gorm:"column:knowledge_id;type:uuid;primaryKey" json:"knowledge_id"`
	KnowledgeResourceID      uuid.UUID                 `gorm:"column:knowledge_resource_id;type:uuid;not null;index" json:"knowledge_resource_id"`
	KnowledgeVersionNumber   int                       `gorm:"column:knowledge_version_number;not null;default:1" json:"knowledge_version_number"`
	KnowledgeStatus          versioning.ResourceStatus `gorm:"column:knowledge_status;type:varchar(16);not null;default:'draft'" json:"knowledge_status"`
	KnowledgeIsCurrent       bool                      `gorm:"column:knowledge_is_current;not null;default:false" json:"knowledge_is_current"`
	KnowledgeSourceVersionID *uuid.UUID                `gorm:"column:knowledge_source_version_id;type:uuid" json:"knowledge_source_version_id,omitempty"`
	KnowledgePublishedAt     *time.Time                `gorm:"column:knowledge_published_at" json:"knowledge_published_at,omitempty"`

	KnowledgeTitle string        `gorm:"column:knowledge_title;type:varchar(255);not null" json:"knowledge_title"`
	KnowledgeType  KnowledgeType `gorm:"column:knowledge_type;type:varchar(16);not null;default:'other'" json:"knowledge_type"`

	// Free-form body, used for the "other" kind.
	KnowledgeBody string `gorm:"column:knowledge_body;type:text" json:"knowledge_body"`

	// Structured fields for the "emergency" kind. The snapshot summary takes
	// the first non-empty one in this declaration order.
	KnowledgeSymptom    string `gorm:"column:knowledge_symptom;type:text" json:"knowledge_symptom"`
	KnowledgeTreatment  string `gorm:"column:knowledge_treatment;type:text" json:"knowledge_treatment"`
	KnowledgePrecaution string `gorm:"column:knowledge_precaution;type:text" json:"knowledge_precaution"`

	KnowledgeAuthorID  uuid.UUID `gorm:"column:knowledge_author_id;type:uuid;not null" json:"knowledge_author_id"`
	KnowledgeCreatedAt time.Time `gorm:"column:knowledge_created_at;autoCreateTime" json:"knowledge_created_at"`
	KnowledgeUpdatedAt time.Time `gorm:"column:knowledge_updated_at;autoUpdateTime" json:"knowledge_updated_at"`
}

func (KnowledgeModel) TableName() string { return "knowledge" }

func (m *KnowledgeModel) BeforeCreate(tx *gorm.DB) error {
	if m.KnowledgeID == uuid.Nil {
		m.KnowledgeID = uuid.New()
	}
	if m.KnowledgeResourceID == uuid.Nil {
		m.KnowledgeResourceID = uuid.New()
	}
	return nil
}

func (m *KnowledgeModel) IsDraft() bool {
	return m.KnowledgeStatus == versioning.StatusDraft
}

// SummaryFields returns the ordered structured-field accessors used for the
// emergency summary. An explicit list, not reflection.
func (m *KnowledgeModel) SummaryFields() []string {
	return []string{m.KnowledgeSymptom, m.KnowledgeTreatment, m.KnowledgePrecaution}
}

func (t KnowledgeType) Valid() bool {
	switch t {
	case KnowledgeTypeOther, KnowledgeTypeEmergency:
		return true
	default:
		return false
	}
}

func ParseKnowledgeType(s string) (KnowledgeType, bool) {
	t := KnowledgeType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Cols feeds the generic version store for this table.
var Cols = versioning.Cols{
	Table:         "knowledge",
	ID:            "knowledge_id",
	ResourceID:    "knowledge_resource_id",
	VersionNumber: "knowledge_version_number",
	Status:        "knowledge_status",
	IsCurrent:     "knowledge_is_current",
	PublishedAt:   "knowledge_published_at",
}
