// file: internals/features/learning/knowledge/dto/knowledge_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"akademiku_backend/internals/features/learning/knowledge/model"
	"akademiku_backend/internals/features/learning/versioning"
)

/* ==============================
   CREATE (POST /knowledge)
============================== */

type CreateKnowledgeRequest struct {
	KnowledgeTitle      string `json:"knowledge_title" validate:"required,max=255"`
	KnowledgeType       string `json:"knowledge_type" validate:"required,oneof=other emergency"`
	KnowledgeBody       string `json:"knowledge_body" validate:"omitempty"`
	KnowledgeSymptom    string `json:"knowledge_symptom" validate:"omitempty"`
	KnowledgeTreatment  string `json:"knowledge_treatment" validate:"omitempty"`
	KnowledgePrecaution string `json:"knowledge_precaution" validate:"omitempty"`
}

func (r *CreateKnowledgeRequest) ToModel(authorID uuid.UUID) *model.KnowledgeModel {
	kind, _ := model.ParseKnowledgeType(r.KnowledgeType)
	return &model.KnowledgeModel{
		KnowledgeVersionNumber: 1,
		KnowledgeStatus:        versioning.StatusDraft,
		KnowledgeTitle:         r.KnowledgeTitle,
		KnowledgeType:          kind,
		KnowledgeBody:          r.KnowledgeBody,
		KnowledgeSymptom:       r.KnowledgeSymptom,
		KnowledgeTreatment:     r.KnowledgeTreatment,
		KnowledgePrecaution:    r.KnowledgePrecaution,
		KnowledgeAuthorID:      authorID,
	}
}

/* ==============================
   UPDATE draft (PATCH /knowledge/:id)
============================== */

type UpdateKnowledgeRequest struct {
	KnowledgeTitle      *string `json:"knowledge_title" validate:"omitempty,max=255"`
	KnowledgeBody       *string `json:"knowledge_body" validate:"omitempty"`
	KnowledgeSymptom    *string `json:"knowledge_symptom" validate:"omitempty"`
	KnowledgeTreatment  *string `json:"knowledge_treatment" validate:"omitempty"`
	KnowledgePrecaution *string `json:"knowledge_precaution" validate:"omitempty"`
}

func (r *UpdateKnowledgeRequest) Apply(m *model.KnowledgeModel) {
	if r.KnowledgeTitle != nil {
		m.KnowledgeTitle = *r.KnowledgeTitle
	}
	if r.KnowledgeBody != nil {
		m.KnowledgeBody = *r.KnowledgeBody
	}
	if r.KnowledgeSymptom != nil {
		m.KnowledgeSymptom = *r.KnowledgeSymptom
	}
	if r.KnowledgeTreatment != nil {
		m.KnowledgeTreatment = *r.KnowledgeTreatment
	}
	if r.KnowledgePrecaution != nil {
		m.KnowledgePrecaution = *r.KnowledgePrecaution
	}
}

/* ==============================
   RESPONSE
============================== */

type KnowledgeResponse struct {
	KnowledgeID              uuid.UUID  `json:"knowledge_id"`
	KnowledgeResourceID      uuid.UUID  `json:"knowledge_resource_id"`
	KnowledgeVersionNumber   int        `json:"knowledge_version_number"`
	KnowledgeStatus          string     `json:"knowledge_status"`
	KnowledgeIsCurrent       bool       `json:"knowledge_is_current"`
	KnowledgeSourceVersionID *uuid.UUID `json:"knowledge_source_version_id,omitempty"`
	KnowledgePublishedAt     *time.Time `json:"knowledge_published_at,omitempty"`
	KnowledgeTitle           string     `json:"knowledge_title"`
	KnowledgeType            string     `json:"knowledge_type"`
	KnowledgeBody            string     `json:"knowledge_body,omitempty"`
	KnowledgeSymptom         string     `json:"knowledge_symptom,omitempty"`
	KnowledgeTreatment       string     `json:"knowledge_treatment,omitempty"`
	KnowledgePrecaution      string     `json:"knowledge_precaution,omitempty"`
	KnowledgeTags            []string   `json:"knowledge_tags,omitempty"`
	KnowledgeCreatedAt       time.Time  `json:"knowledge_created_at"`
}

func ToKnowledgeResponse(m *model.KnowledgeModel, tags []string) KnowledgeResponse {
	return KnowledgeResponse{
		KnowledgeID:              m.KnowledgeID,
		KnowledgeResourceID:      m.KnowledgeResourceID,
		KnowledgeVersionNumber:   m.KnowledgeVersionNumber,
		KnowledgeStatus:          string(m.KnowledgeStatus),
		KnowledgeIsCurrent:       m.KnowledgeIsCurrent,
		KnowledgeSourceVersionID: m.KnowledgeSourceVersionID,
		KnowledgePublishedAt:     m.KnowledgePublishedAt,
		KnowledgeTitle:           m.KnowledgeTitle,
		KnowledgeType:            string(m.KnowledgeType),
		KnowledgeBody:            m.KnowledgeBody,
		KnowledgeSymptom:         m.KnowledgeSymptom,
		KnowledgeTreatment:       m.KnowledgeTreatment,
		KnowledgePrecaution:      m.KnowledgePrecaution,
		KnowledgeTags:            tags,
		KnowledgeCreatedAt:       m.KnowledgeCreatedAt,
	}
}
