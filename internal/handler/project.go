package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/access"
	"github.com/taskhive/taskhive/internal/cache"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/notify"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/storage"
)

// ProjectHandler bundles everything the project endpoints need: the raw
// DB handle for multi-repository transactions, the repositories, the
// notification engine and the file store for cascade cleanup.
type ProjectHandler struct {
	DB       *sql.DB
	Projects *repository.ProjectRepo
	Tasks    *repository.TaskRepo
	Members  *repository.MemberRepo
	Users    *repository.UserRepo
	Files    *repository.FileRepo
	Notifier *notify.Engine
	Store    *storage.Store
	Counter  *cache.UnreadCounter
}

// ----- DTOs -----

type projectReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectResp struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type memberResp struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type addMemberReq struct {
	Email string `json:"email"`
}

func toProjectResp(p model.Project) projectResp {
	return projectResp{ID: p.ID, OwnerID: p.OwnerID, Name: p.Name,
		Description: p.Description, CreatedAt: p.CreatedAt}
}

// List handles GET /v1/projects: every project the caller owns or is a
// member of, newest first.
func (h *ProjectHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	projects, err := h.Projects.ListAccessible(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]projectResp, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/projects.  The caller becomes the owner; the
// owner never gets a membership row.
func (h *ProjectHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required", "field": "name"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p := model.Project{OwnerID: uid, Name: req.Name, Description: req.Description}
	if err := h.Projects.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create project failed"})
	}
	return c.JSON(http.StatusCreated, toProjectResp(p))
}

// Get handles GET /v1/projects/:id and returns the project together with
// its tasks, members and directly-attached files.  Owner or member only.
func (h *ProjectHandler) Get(c echo.Context) error {
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

	tasks, err := h.Tasks.ListByProject(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	members, err := h.Members.List(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	files, err := h.Files.ListByProject(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	taskOut := make([]taskResp, 0, len(tasks))
	for _, t := range tasks {
		taskOut = append(taskOut, toTaskResp(t))
	}
	memberOut := make([]memberResp, 0, len(members))
	for _, m := range members {
		memberOut = append(memberOut, memberResp{UserID: m.UserID, Username: m.Username, Email: m.Email})
	}
	fileOut := make([]fileResp, 0, len(files))
	for _, f := range files {
		fileOut = append(fileOut, toFileResp(f))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"project": toProjectResp(p),
		"tasks":   taskOut,
		"members": memberOut,
		"files":   fileOut,
	})
}

// Update handles PUT /v1/projects/:id.  Owner only; the owner column
// itself is immutable.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required", "field": "name"})
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
	if !access.CanEditProject(u, p) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Projects.Update(ctx, id, req.Name, req.Description); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	p.Name, p.Description = req.Name, req.Description
	return c.JSON(http.StatusOK, toProjectResp(p))
}

// Delete handles DELETE /v1/projects/:id.  Owner only.  The repository
// removes the whole subtree in one transaction; file bytes are removed
// from disk only after the commit.
func (h *ProjectHandler) Delete(c echo.Context) error {
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
	if !access.CanEditProject(u, p) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	storageNames, err := h.Projects.DeleteCascade(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	_ = h.Store.RemoveAll(storageNames) // rows are gone; missing bytes are tolerable
	return c.NoContent(http.StatusNoContent)
}

// AddMember handles POST /v1/projects/:id/members.  Owner only.  The
// user is looked up by email; adding the owner, yourself or an existing
// member is a no-op reported as such.  The membership row and the
// member-added notification commit in one transaction.
func (h *ProjectHandler) AddMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req addMemberReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required", "field": "email"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, err := currentUser(ctx, h.Users, c)
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
	if !access.CanEditProject(actor, p) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	member, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no user with that email", "field": "email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if member.ID == p.OwnerID {
		return c.JSON(http.StatusOK, echo.Map{"message": "owner already has access"})
	}
	if isMember, err := h.Members.IsMember(ctx, p.ID, member.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if isMember {
		return c.JSON(http.StatusOK, echo.Map{"message": "already a member"})
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add member failed"})
	}
	if err := h.Members.AddTx(ctx, tx, p.ID, member.ID); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add member failed"})
	}
	if err := h.Notifier.MemberAdded(ctx, tx, actor, member, p); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add member failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add member failed"})
	}

	h.Counter.Invalidate(ctx, member.ID)
	publishMemberAdded(c, actor, member, p)
	return c.JSON(http.StatusCreated, memberResp{UserID: member.ID, Username: member.Username, Email: member.Email})
}

// RemoveMember handles DELETE /v1/projects/:id/members/:userID.  Owner
// only; the owner cannot be removed because they never had a row.
func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, err := pathID(c, "userID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, err := currentUser(ctx, h.Users, c)
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
	if !access.CanEditProject(actor, p) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if userID == p.OwnerID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot remove the project owner"})
	}
	if err := h.Members.Remove(ctx, p.ID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not a member of this project"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove member failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
