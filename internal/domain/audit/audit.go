package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category represents the type of audit event.
type Category string

const (
	CategoryNotice  Category = "notice"
	CategoryUser    Category = "user"
	CategorySession Category = "session"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCreate    Action = "create"
	ActionBroadcast Action = "broadcast"
	ActionPush      Action = "push"
	ActionDelete    Action = "delete"
	ActionUpdate    Action = "update"
	ActionLogin     Action = "login"
)

// Event is a single audit log entry recording a privileged operation.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Category   Category  `json:"category"`
	Action     Action    `json:"action"`
	Actor      string    `json:"actor"`
	ResourceID string    `json:"resource_id"`
	Detail     string    `json:"detail"`
}

// NewEvent creates a new audit event with the given timestamp.
// PRE: actor and action are non-empty
// POST: Returns an Event with a fresh id and the provided fields
func NewEvent(now time.Time, actor string, category Category, action Action) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: now,
		Category:  category,
		Action:    action,
		Actor:     actor,
	}
}

// WithResource sets the id of the record the event refers to.
// POST: Event resource field is populated
func (e Event) WithResource(id string) Event {
	e.ResourceID = id
	return e
}

// WithDetail sets a free-text description.
// POST: Event detail is set
func (e Event) WithDetail(detail string) Event {
	e.Detail = detail
	return e
}
