// file: internals/features/learning/submissions/service/grading.go
package service

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	tmodel "akademiku_backend/internals/features/learning/tasks/model"
)

func datatypesJSON(raw json.RawMessage) datatypes.JSON {
	if raw == nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// matchAnswer scores one objective answer against the snapshot's pinned key.
// Single choice and true/false compare a single selected key; multiple choice
// compares the selected keys as a set, order-insensitive.
func matchAnswer(q *tmodel.QuestionSnapshot, payload datatypes.JSON) bool {
	if len(payload) == 0 || len(q.Answer) == 0 {
		return false
	}
	switch q.Type {
	case "multiple":
		want, ok1 := decodeKeySet(q.Answer)
		got, ok2 := decodeKeySet(json.RawMessage(payload))
		if !ok1 || !ok2 || len(want) != len(got) {
			return false
		}
		for k := range want {
			if !got[k] {
				return false
			}
		}
		return true
	default: // single, truefalse
		want, ok1 := decodeKey(q.Answer)
		got, ok2 := decodeKey(json.RawMessage(payload))
		return ok1 && ok2 && want != "" && want == got
	}
}

func decodeKey(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return normalizeKey(s), true
}

func decodeKeySet(raw json.RawMessage) (map[string]bool, bool) {
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, false
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[normalizeKey(k)] = true
	}
	return set, true
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
