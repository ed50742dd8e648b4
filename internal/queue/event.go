// Package queue defines message payloads exchanged over the message broker.
package queue

// Activity event kinds published to the tracker.activity queue.
const (
	KindTaskAssigned  = "task.assigned"
	KindTaskCommented = "task.commented"
	KindMemberAdded   = "project.member_added"
)

// ActivityEvent is published after a mutation that produced notifications
// commits.  It carries enough information for downstream consumers to
// log or trigger analytics without querying the primary database.
type ActivityEvent struct {
	Kind         string   `json:"kind"`
	ActorID      uint64   `json:"actor_id"`
	ActorName    string   `json:"actor_name"`
	ProjectID    uint64   `json:"project_id"`
	TaskID       uint64   `json:"task_id,omitempty"`
	EntityTitle  string   `json:"entity_title"`
	RecipientIDs []uint64 `json:"recipient_ids,omitempty"`
	OccurredAt   string   `json:"occurred_at"`
}
