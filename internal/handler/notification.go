package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/cache"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

// NotificationHandler serves a user's own notification feed.  Every
// endpoint is scoped to the authenticated user; other users' rows are
// indistinguishable from nonexistent ones.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
	Counter       *cache.UnreadCounter
}

type notificationResp struct {
	ID         uint64    `json:"id"`
	Message    string    `json:"message"`
	RelatedURL string    `json:"related_url,omitempty"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

func toNotificationResp(n model.Notification) notificationResp {
	return notificationResp{ID: n.ID, Message: n.Message, RelatedURL: n.RelatedURL,
		IsRead: n.IsRead, CreatedAt: n.CreatedAt}
}

// List handles GET /v1/notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Notifications.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]notificationResp, 0, len(rows))
	for _, n := range rows {
		out = append(out, toNotificationResp(n))
	}
	return c.JSON(http.StatusOK, out)
}

// UnreadCount handles GET /v1/notifications/unread-count, the badge
// poll.  The Redis counter absorbs the repeat reads; a miss falls
// through to the database and refreshes the cache.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if n, ok := h.Counter.Get(ctx, uid); ok {
		return c.JSON(http.StatusOK, echo.Map{"unread": n})
	}
	n, err := h.Notifications.CountUnread(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	h.Counter.Set(ctx, uid, n)
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// MarkRead handles POST /v1/notifications/:id/read.  Re-reading an
// already-read notification succeeds; someone else's notification is a
// 404, never a 403, so ids cannot be probed.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Counter.Invalidate(ctx, uid)
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles POST /v1/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkAllRead(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Counter.Invalidate(ctx, uid)
	return c.NoContent(http.StatusNoContent)
}
