// file: internals/features/learning/versioning/status.go
package versioning

// ResourceStatus is the lifecycle state shared by every versionable
// content kind (knowledge, question, quiz).
type ResourceStatus string

const (
	StatusDraft     ResourceStatus = "draft"
	StatusPublished ResourceStatus = "published"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished:
		return true
	default:
		return false
	}
}
