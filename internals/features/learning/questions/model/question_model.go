// file: internals/features/learning/questions/model/question_model.go
package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/versioning"
)

type QuestionType string

const (
	QuestionTypeSingle    QuestionType = "single"
	QuestionTypeMultiple  QuestionType = "multiple"
	QuestionTypeTrueFalse QuestionType = "truefalse"
	QuestionTypeShort     QuestionType = "short" // subjective, manually graded
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingle, QuestionTypeMultiple, QuestionTypeTrueFalse, QuestionTypeShort:
		return true
	default:
		return false
	}
}

// Option is one choice of an objective question, stored in the options jsonb.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// QuestionModel is one version row of a question bank entry.
type QuestionModel struct {
	QuestionID              uuid.UUID                 `gorm:"column:question_id;type:uuid;primaryKey" json:"question_id"`
	QuestionResourceID      uuid.UUID                 `gorm:"column:question_resource_id;type:uuid;not null;index" json:"question_resource_id"`
	QuestionVersionNumber   int                       `gorm:"column:question_version_number;not null;default:1" json:"question_version_number"`
	QuestionStatus          versioning.ResourceStatus `gorm:"column:question_status;type:varchar(16);not null;default:'draft'" json:"question_status"`
	QuestionIsCurrent       bool                      `gorm:"column:question_is_current;not null;default:false" json:"question_is_current"`
	QuestionSourceVersionID *uuid.UUID                `gorm:"column:question_source_version_id;type:uuid" json:"question_source_version_id,omitempty"`
	QuestionPublishedAt     *time.Time                `gorm:"column:question_published_at" json:"question_published_at,omitempty"`

	QuestionType QuestionType `gorm:"column:question_type;type:varchar(16);not null" json:"question_type"`
	QuestionStem string       `gorm:"column:question_stem;type:text;not null" json:"question_stem"`

	// Options: [{key,text}] for single/multiple; empty for truefalse/short.
	QuestionOptions datatypes.JSON `gorm:"column:question_options;type:jsonb" json:"question_options,omitempty"`
	// Answer key: "A" for single, ["A","C"] for multiple, "true"/"false"
	// for truefalse, model answer text for short.
	QuestionAnswer      datatypes.JSON `gorm:"column:question_answer;type:jsonb" json:"question_answer,omitempty"`
	QuestionExplanation *string        `gorm:"column:question_explanation;type:text" json:"question_explanation,omitempty"`
	QuestionScore       float64        `gorm:"column:question_score;type:numeric(6,2);not null;default:1" json:"question_score"`

	QuestionAuthorID  uuid.UUID `gorm:"column:question_author_id;type:uuid;not null" json:"question_author_id"`
	QuestionCreatedAt time.Time `gorm:"column:question_created_at;autoCreateTime" json:"question_created_at"`
	QuestionUpdatedAt time.Time `gorm:"column:question_updated_at;autoUpdateTime" json:"question_updated_at"`
}

func (QuestionModel) TableName() string { return "questions" }

func (m *QuestionModel) BeforeCreate(tx *gorm.DB) error {
	if m.QuestionID == uuid.Nil {
		m.QuestionID = uuid.New()
	}
	if m.QuestionResourceID == uuid.Nil {
		m.QuestionResourceID = uuid.New()
	}
	return nil
}

func (m *QuestionModel) IsDraft() bool      { return m.QuestionStatus == versioning.StatusDraft }
func (m *QuestionModel) IsSubjective() bool { return m.QuestionType == QuestionTypeShort }

// ValidateShape mirrors the DB check constraints so bad payloads fail fast.
func (m *QuestionModel) ValidateShape() error {
	if !m.QuestionType.Valid() {
		return errors.New("unknown question type")
	}
	if strings.TrimSpace(m.QuestionStem) == "" {
		return errors.New("question stem is required")
	}
	if m.QuestionScore < 0 {
		return errors.New("question score must not be negative")
	}

	switch m.QuestionType {
	case QuestionTypeShort:
		// answer holds an optional model answer; no options
		if len(m.QuestionOptions) != 0 {
			return errors.New("short question must not carry options")
		}
		return nil

	case QuestionTypeTrueFalse:
		var key string
		if err := json.Unmarshal(m.QuestionAnswer, &key); err != nil {
			return errors.New("truefalse answer must be \"true\" or \"false\"")
		}
		if key != "true" && key != "false" {
			return errors.New("truefalse answer must be \"true\" or \"false\"")
		}
		return nil

	case QuestionTypeSingle:
		opts, err := m.Options()
		if err != nil || len(opts) < 2 {
			return errors.New("single question needs at least 2 options")
		}
		var key string
		if err := json.Unmarshal(m.QuestionAnswer, &key); err != nil {
			return errors.New("single answer must be one option key")
		}
		if !hasOptionKey(opts, key) {
			return errors.New("single answer key not present in options")
		}
		return nil

	case QuestionTypeMultiple:
		opts, err := m.Options()
		if err != nil || len(opts) < 2 {
			return errors.New("multiple question needs at least 2 options")
		}
		var keys []string
		if err := json.Unmarshal(m.QuestionAnswer, &keys); err != nil || len(keys) == 0 {
			return errors.New("multiple answer must be a non-empty key list")
		}
		for _, k := range keys {
			if !hasOptionKey(opts, k) {
				return errors.New("multiple answer key not present in options")
			}
		}
		return nil
	}
	return nil
}

func (m *QuestionModel) Options() ([]Option, error) {
	if len(m.QuestionOptions) == 0 {
		return nil, nil
	}
	var opts []Option
	if err := json.Unmarshal(m.QuestionOptions, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func hasOptionKey(opts []Option, key string) bool {
	for _, o := range opts {
		if o.Key == key {
			return true
		}
	}
	return false
}

// Cols feeds the generic version store for this table.
var Cols = versioning.Cols{
	Table:         "questions",
	ID:            "question_id",
	ResourceID:    "question_resource_id",
	VersionNumber: "question_version_number",
	Status:        "question_status",
	IsCurrent:     "question_is_current",
	PublishedAt:   "question_published_at",
}
