// Package notify is the notification engine.  It computes recipient sets
// for domain events and inserts notification rows through the repository,
// always inside the caller's transaction so a failed commit rolls back
// the triggering mutation and its notifications together.  The engine
// never fails the parent operation over an unattributable notification;
// the repository logs and skips those.
package notify

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

// Engine writes notifications for domain events.
type Engine struct {
	Notifications *repository.NotificationRepo
}

// NewEngine constructs an Engine around the notification repository.
func NewEngine(n *repository.NotificationRepo) *Engine {
	if n == nil {
		panic("nil notification repository passed to NewEngine")
	}
	return &Engine{Notifications: n}
}

// projectURL builds the deep link for a project, optionally anchored at a
// task, matching the paths the router registers.
func projectURL(projectID uint64, taskID uint64) string {
	if taskID != 0 {
		return fmt.Sprintf("/v1/projects/%d#task-%d", projectID, taskID)
	}
	return fmt.Sprintf("/v1/projects/%d", projectID)
}

// TaskAssigned records a notification for a task assignment.  The old
// and new assignees are passed in explicitly by the caller rather than
// diffed from ambient state.  A notification is written only when the
// new assignee exists, differs from the actor (no self-notification) and
// differs from the previous assignee (re-assigning to the same user is
// not an event).
func (e *Engine) TaskAssigned(ctx context.Context, tx *sql.Tx, actor model.User, task model.Task, oldAssigneeID, newAssigneeID *uint64) error {
	if newAssigneeID == nil {
		return nil
	}
	if *newAssigneeID == actor.ID {
		return nil
	}
	if oldAssigneeID != nil && *oldAssigneeID == *newAssigneeID {
		return nil
	}
	msg := fmt.Sprintf("@%s assigned you the task %q", actor.Username, task.Title)
	return e.Notifications.CreateTx(ctx, tx, *newAssigneeID, msg, projectURL(task.ProjectID, task.ID))
}

// CommentAdded notifies the task's audience about a new comment.  The
// recipient set is {project owner, task assignee, task creator} minus the
// comment author, deduplicated so a user occupying several roles gets
// exactly one notification.
func (e *Engine) CommentAdded(ctx context.Context, tx *sql.Tx, author model.User, task model.Task, projectOwnerID uint64) error {
	msg := fmt.Sprintf("New comment from @%s on task %q", author.Username, task.Title)
	url := projectURL(task.ProjectID, task.ID)
	for _, id := range CommentRecipients(author.ID, task, projectOwnerID) {
		if err := e.Notifications.CreateTx(ctx, tx, id, msg, url); err != nil {
			return err
		}
	}
	return nil
}

// CommentRecipients computes the deduplicated recipient set for a new
// comment: {project owner, task assignee, task creator} minus the
// author.  Exposed so callers can report the same set to the activity
// stream.
func CommentRecipients(authorID uint64, task model.Task, projectOwnerID uint64) []uint64 {
	seen := map[uint64]bool{}
	var out []uint64
	add := func(id uint64) {
		if id != authorID && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	add(projectOwnerID)
	if task.AssigneeID != nil {
		add(*task.AssigneeID)
	}
	add(task.CreatorID)
	return out
}

// MemberAdded notifies a user that they were added to a project.  Adding
// yourself produces nothing.
func (e *Engine) MemberAdded(ctx context.Context, tx *sql.Tx, actor model.User, member model.User, project model.Project) error {
	if member.ID == actor.ID {
		return nil
	}
	msg := fmt.Sprintf("@%s added you to the project %q", actor.Username, project.Name)
	return e.Notifications.CreateTx(ctx, tx, member.ID, msg, projectURL(project.ID, 0))
}
