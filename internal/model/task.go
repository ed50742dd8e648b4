package model

import (
	"fmt"
	"time"
)

// TaskStatus is the closed set of workflow states a task can be in.
// Transitions are free: any authorized actor may set any status directly,
// including moving DONE back to TODO.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
	StatusArchived   TaskStatus = "ARCHIVED"
)

// TaskStatuses lists every status in display order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusDone, StatusArchived}
}

// ParseTaskStatus validates a status name against the enum domain.  An
// unrecognized name is a validation error and must never reach the store.
func ParseTaskStatus(name string) (TaskStatus, error) {
	switch TaskStatus(name) {
	case StatusTodo, StatusInProgress, StatusDone, StatusArchived:
		return TaskStatus(name), nil
	}
	return "", fmt.Errorf("unknown task status %q", name)
}

// TaskPriority is an unordered attribute with no transition constraints.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// TaskPriorities lists every priority in ascending order of urgency.
func TaskPriorities() []TaskPriority {
	return []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}
}

// ParseTaskPriority validates a priority name against the enum domain.
func ParseTaskPriority(name string) (TaskPriority, error) {
	switch TaskPriority(name) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return TaskPriority(name), nil
	}
	return "", fmt.Errorf("unknown task priority %q", name)
}

// Task represents a unit of work inside a project.  Deleting a task
// removes its comments and files in the same transaction.
//
// Fields:
//  ID          – primary key identifier.
//  ProjectID   – project the task belongs to.
//  CreatorID   – user who created the task.
//  AssigneeID  – user the task is assigned to (nil when unassigned).
//  Title       – short task title.
//  Description – optional longer description.
//  Status      – one of the TaskStatus values.
//  Priority    – one of the TaskPriority values.
//  DueDate     – optional deadline.
//  CreatedAt   – creation timestamp.
type Task struct {
	ID          uint64       // tasks.id
	ProjectID   uint64       // tasks.project_id
	CreatorID   uint64       // tasks.creator_id
	AssigneeID  *uint64      // tasks.assignee_id (nullable)
	Title       string       // tasks.title
	Description string       // tasks.description
	Status      TaskStatus   // tasks.status
	Priority    TaskPriority // tasks.priority
	DueDate     *time.Time   // tasks.due_date (nullable)
	CreatedAt   time.Time    // tasks.created_at
}
