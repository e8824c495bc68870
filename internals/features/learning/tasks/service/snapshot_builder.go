// file: internals/features/learning/tasks/service/snapshot_builder.go
package service

import (
	"encoding/json"
	"strings"

	kmodel "akademiku_backend/internals/features/learning/knowledge/model"
	qmodel "akademiku_backend/internals/features/learning/questions/model"
	qzmodel "akademiku_backend/internals/features/learning/quizzes/model"
	"akademiku_backend/internals/features/learning/tasks/model"
)

// summaryPreviewLen bounds the snapshot summary, counted in runes.
const summaryPreviewLen = 160

// BuildKnowledgeSnapshot freezes one knowledge version into a self-contained
// payload. Pure: reads the already-loaded model, never re-queries the source.
func BuildKnowledgeSnapshot(k *kmodel.KnowledgeModel, tagNames []string) model.KnowledgeSnapshot {
	summary := ""
	switch k.KnowledgeType {
	case kmodel.KnowledgeTypeEmergency:
		// first non-empty structured field, in the model's declared order
		for _, f := range k.SummaryFields() {
			if strings.TrimSpace(f) != "" {
				summary = truncateRunes(f, summaryPreviewLen)
				break
			}
		}
	default:
		summary = truncateRunes(k.KnowledgeBody, summaryPreviewLen)
	}

	return model.KnowledgeSnapshot{
		ResourceID:    k.KnowledgeResourceID,
		VersionNumber: k.KnowledgeVersionNumber,
		Title:         k.KnowledgeTitle,
		Type:          string(k.KnowledgeType),
		Summary:       summary,
		Body:          k.KnowledgeBody,
		Tags:          tagNames,
	}
}

// BuildQuizSnapshot freezes a quiz version together with its fully expanded
// question list. questions must already be resolved to the versions being
// pinned and ordered by display position; an empty quiz yields zero counts.
func BuildQuizSnapshot(q *qzmodel.QuizModel, questions []qmodel.QuestionModel) model.QuizSnapshot {
	snap := model.QuizSnapshot{
		ResourceID:    q.QuizResourceID,
		VersionNumber: q.QuizVersionNumber,
		Title:         q.QuizTitle,
		Description:   q.QuizDescription,
		Questions:     make([]model.QuestionSnapshot, 0, len(questions)),
	}

	for i, qu := range questions {
		subjective := qu.IsSubjective()
		snap.Questions = append(snap.Questions, model.QuestionSnapshot{
			QuestionID:    qu.QuestionID,
			ResourceID:    qu.QuestionResourceID,
			VersionNumber: qu.QuestionVersionNumber,
			Type:          string(qu.QuestionType),
			Stem:          qu.QuestionStem,
			Options:       json.RawMessage(qu.QuestionOptions),
			Answer:        json.RawMessage(qu.QuestionAnswer),
			Explanation:   qu.QuestionExplanation,
			Score:         qu.QuestionScore,
			Order:         i,
			Subjective:    subjective,
		})

		snap.TotalScore += qu.QuestionScore
		if subjective {
			snap.SubjectiveCount++
		} else {
			snap.ObjectiveCount++
		}
	}

	snap.QuestionCount = len(snap.Questions)
	snap.HasSubjective = snap.SubjectiveCount > 0
	return snap
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
