package router

import (
	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/middleware"
)

// RegisterTracker registers the authenticated tracker surface under /v1:
// projects with their members, tasks with comments, attachments, reports
// and the caller's notification feed.  Authorization beyond "logged in"
// lives in the handlers, because it depends on ownership and membership
// rows rather than on the role claim.
func RegisterTracker(
	e *echo.Echo,
	p *handler.ProjectHandler,
	t *handler.TaskHandler,
	f *handler.FileHandler,
	n *handler.NotificationHandler,
	r *handler.ReportHandler,
	jwtSecret string,
) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.GET("/projects", p.List)
	g.POST("/projects", p.Create)
	g.GET("/projects/:id", p.Get)
	g.PUT("/projects/:id", p.Update)
	g.DELETE("/projects/:id", p.Delete)
	g.POST("/projects/:id/members", p.AddMember)
	g.DELETE("/projects/:id/members/:userID", p.RemoveMember)
	g.GET("/projects/:id/report", r.ProjectReport)

	g.POST("/projects/:id/tasks", t.Create)
	g.GET("/tasks/:id", t.Get)
	g.PUT("/tasks/:id", t.Update)
	g.PATCH("/tasks/:id/status", t.UpdateStatus)
	g.DELETE("/tasks/:id", t.Delete)
	g.POST("/tasks/:id/comments", t.AddComment)

	g.POST("/projects/:id/files", f.UploadToProject)
	g.POST("/tasks/:id/files", f.UploadToTask)
	g.GET("/files/:id", f.Download)
	g.DELETE("/files/:id", f.Delete)

	g.GET("/notifications", n.List)
	g.GET("/notifications/unread-count", n.UnreadCount)
	g.POST("/notifications/:id/read", n.MarkRead)
	g.POST("/notifications/read-all", n.MarkAllRead)
}
