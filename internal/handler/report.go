package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/access"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

// ReportHandler produces per-project aggregate reports.
type ReportHandler struct {
	Projects *repository.ProjectRepo
	Tasks    *repository.TaskRepo
	Members  *repository.MemberRepo
	Users    *repository.UserRepo
}

// ProjectReport handles GET /v1/projects/:id/report: task counts by
// status and by priority plus a completion percentage.  Owner or member
// only.  Every status and priority appears in the maps even at zero, so
// consumers never special-case missing keys.
func (h *ReportHandler) ProjectReport(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := currentUser(ctx, h.Users, c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ok, err := access.CanAccessProject(ctx, h.Members, u, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	byStatus, err := h.Tasks.CountByStatus(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	byPriority, err := h.Tasks.CountByPriority(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}
	completion := 0.0
	if total > 0 {
		completion = float64(byStatus[model.StatusDone]) / float64(total) * 100
	}

	statusOut := make(map[string]int, len(byStatus))
	for s, n := range byStatus {
		statusOut[string(s)] = n
	}
	priorityOut := make(map[string]int, len(byPriority))
	for pr, n := range byPriority {
		priorityOut[string(pr)] = n
	}
	return c.JSON(http.StatusOK, echo.Map{
		"project_id":         p.ID,
		"total_tasks":        total,
		"by_status":          statusOut,
		"by_priority":        priorityOut,
		"completion_percent": completion,
	})
}
