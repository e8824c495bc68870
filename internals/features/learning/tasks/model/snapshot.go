// file: internals/features/learning/tasks/model/snapshot.go
package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// KnowledgeSnapshot is the frozen payload stored in task_knowledge.snapshot.
type KnowledgeSnapshot struct {
	ResourceID    uuid.UUID `json:"resource_id"`
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	Summary       string    `json:"summary"`
	Body          string    `json:"body,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
}

// QuestionSnapshot is one fully expanded question inside a quiz snapshot,
// answer key and score pinned at snapshot time.
type QuestionSnapshot struct {
	QuestionID    uuid.UUID       `json:"question_id"`
	ResourceID    uuid.UUID       `json:"resource_id"`
	VersionNumber int             `json:"version_number"`
	Type          string          `json:"type"`
	Stem          string          `json:"stem"`
	Options       json.RawMessage `json:"options,omitempty"`
	Answer        json.RawMessage `json:"answer,omitempty"`
	Explanation   *string         `json:"explanation,omitempty"`
	Score         float64         `json:"score"`
	Order         int             `json:"order"`
	Subjective    bool            `json:"subjective"`
}

// QuizSnapshot is the frozen payload stored in task_quizzes.snapshot. The
// aggregates are computed once at snapshot time and never recomputed.
type QuizSnapshot struct {
	ResourceID    uuid.UUID          `json:"resource_id"`
	VersionNumber int                `json:"version_number"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	Questions     []QuestionSnapshot `json:"questions"`

	QuestionCount   int     `json:"question_count"`
	TotalScore      float64 `json:"total_score"`
	ObjectiveCount  int     `json:"objective_count"`
	SubjectiveCount int     `json:"subjective_count"`
	HasSubjective   bool    `json:"has_subjective"`
}

// Question resolves one pinned question by its resource id.
func (s *QuizSnapshot) Question(resourceID uuid.UUID) (*QuestionSnapshot, bool) {
	for i := range s.Questions {
		if s.Questions[i].ResourceID == resourceID {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

func (m *TaskKnowledgeModel) Snapshot() (*KnowledgeSnapshot, error) {
	var snap KnowledgeSnapshot
	if err := json.Unmarshal(m.TaskKnowledgeSnapshot, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (m *TaskQuizModel) Snapshot() (*QuizSnapshot, error) {
	var snap QuizSnapshot
	if err := json.Unmarshal(m.TaskQuizSnapshot, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func MarshalSnapshot(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
