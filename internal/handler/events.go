package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/queue"
	queue_publisher "github.com/taskhive/taskhive/internal/service"
)

// Activity events are published after the triggering transaction has
// committed.  Publishing is best-effort: the in-app notification row is
// the durable record, so broker errors are logged by the publisher and
// otherwise ignored here.

func publishTaskAssigned(c echo.Context, actor model.User, task model.Task, assigneeID uint64) {
	_ = queue_publisher.PublishActivity(c.Request().Context(), queue.ActivityEvent{
		Kind:         queue.KindTaskAssigned,
		ActorID:      actor.ID,
		ActorName:    actor.Username,
		ProjectID:    task.ProjectID,
		TaskID:       task.ID,
		EntityTitle:  task.Title,
		RecipientIDs: []uint64{assigneeID},
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

func publishTaskCommented(c echo.Context, actor model.User, task model.Task, recipients []uint64) {
	_ = queue_publisher.PublishActivity(c.Request().Context(), queue.ActivityEvent{
		Kind:         queue.KindTaskCommented,
		ActorID:      actor.ID,
		ActorName:    actor.Username,
		ProjectID:    task.ProjectID,
		TaskID:       task.ID,
		EntityTitle:  task.Title,
		RecipientIDs: recipients,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

func publishMemberAdded(c echo.Context, actor, member model.User, p model.Project) {
	_ = queue_publisher.PublishActivity(c.Request().Context(), queue.ActivityEvent{
		Kind:         queue.KindMemberAdded,
		ActorID:      actor.ID,
		ActorName:    actor.Username,
		ProjectID:    p.ID,
		EntityTitle:  p.Name,
		RecipientIDs: []uint64{member.ID},
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	})
}
