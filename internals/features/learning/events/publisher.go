// file: internals/features/learning/events/publisher.go
package events

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

const (
	AssignmentCreated   = "assignment.created"
	AssignmentCompleted = "assignment.completed"
)

// Event is what the task engine emits for an external notifier. The core
// never delivers notifications itself.
type Event struct {
	Name         string    `json:"name"`
	TaskID       uuid.UUID `json:"task_id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	AssigneeID   uuid.UUID `json:"assignee_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// LogPublisher is the default sink; a real notifier replaces it at wiring.
type LogPublisher struct{}

func NewLogPublisher() LogPublisher { return LogPublisher{} }

func (LogPublisher) Publish(_ context.Context, ev Event) {
	log.Printf("[events] %s task=%s assignment=%s assignee=%s", ev.Name, ev.TaskID, ev.AssignmentID, ev.AssigneeID)
}
