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

// TaskHandler bundles the dependencies of the task endpoints.  The raw
// DB handle opens the transactions that tie a mutation to the
// notifications it triggers.
type TaskHandler struct {
	DB       *sql.DB
	Tasks    *repository.TaskRepo
	Projects *repository.ProjectRepo
	Members  *repository.MemberRepo
	Users    *repository.UserRepo
	Comments *repository.CommentRepo
	Files    *repository.FileRepo
	Notifier *notify.Engine
	Store    *storage.Store
	Counter  *cache.UnreadCounter
}

// ----- DTOs -----

type taskReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     string  `json:"due_date"`
	AssigneeID  *uint64 `json:"assignee_id"`
}

type taskResp struct {
	ID          uint64    `json:"id"`
	ProjectID   uint64    `json:"project_id"`
	CreatorID   uint64    `json:"creator_id"`
	AssigneeID  *uint64   `json:"assignee_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     *string   `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type statusReq struct {
	Status string `json:"status"`
}

type commentReq struct {
	Body string `json:"body"`
}

type commentResp struct {
	ID             uint64    `json:"id"`
	TaskID         uint64    `json:"task_id"`
	AuthorID       uint64    `json:"author_id"`
	AuthorUsername string    `json:"author_username,omitempty"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

func toTaskResp(t model.Task) taskResp {
	r := taskResp{
		ID: t.ID, ProjectID: t.ProjectID, CreatorID: t.CreatorID,
		AssigneeID: t.AssigneeID, Title: t.Title, Description: t.Description,
		Status: string(t.Status), Priority: string(t.Priority), CreatedAt: t.CreatedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format("2006-01-02")
		r.DueDate = &d
	}
	return r
}

func toCommentResp(cm model.Comment) commentResp {
	return commentResp{ID: cm.ID, TaskID: cm.TaskID, AuthorID: cm.AuthorID,
		AuthorUsername: cm.AuthorUsername, Body: cm.Body, CreatedAt: cm.CreatedAt}
}

// parseDueDate accepts a bare date or a full RFC 3339 timestamp.  An
// empty string clears the due date.
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return &d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// taskFromReq validates the request body and loads it onto a task
// record.  Status and priority default to TODO and MEDIUM when absent.
func taskFromReq(req taskReq, t *model.Task) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title", errors.New("title required")
	}
	if req.Status == "" {
		req.Status = string(model.StatusTodo)
	}
	status, err := model.ParseTaskStatus(req.Status)
	if err != nil {
		return "status", err
	}
	if req.Priority == "" {
		req.Priority = string(model.PriorityMedium)
	}
	priority, err := model.ParseTaskPriority(req.Priority)
	if err != nil {
		return "priority", err
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return "due_date", errors.New("due_date must be YYYY-MM-DD")
	}
	t.Title = req.Title
	t.Description = req.Description
	t.Status = status
	t.Priority = priority
	t.DueDate = due
	t.AssigneeID = req.AssigneeID
	return "", nil
}

// loadTaskProject resolves the authenticated user, the task and its
// project.  On failure it writes the response itself and reports ok=false;
// the calling handler returns nil because the response is committed.
func (h *TaskHandler) loadTaskProject(c echo.Context, taskID uint64) (u model.User, t model.Task, p model.Project, ok bool) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := currentUser(ctx, h.Users, c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return u, t, p, false
	}
	t, err = h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return u, t, p, false
	}
	p, err = h.Projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		return u, t, p, false
	}
	return u, t, p, true
}

// checkAssignee verifies a requested assignee exists and has access to
// the project, so tasks can only be assigned to the owner or a member.
// On rejection the response is written and ok=false is returned.
func (h *TaskHandler) checkAssignee(c echo.Context, assigneeID *uint64, p model.Project) bool {
	if assigneeID == nil {
		return true
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	assignee, err := h.Users.GetByID(ctx, *assigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee does not exist", "field": "assignee_id"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return false
	}
	ok, err := access.CanAccessProject(ctx, h.Members, assignee, p)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		return false
	}
	if !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee is not on this project", "field": "assignee_id"})
		return false
	}
	return true
}

// Create handles POST /v1/projects/:id/tasks.  Anyone with project
// access may create tasks; the task row and the assignment notification
// commit together.
func (h *TaskHandler) Create(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := currentUser(ctx, h.Users, c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	p, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ok, err := access.CanTouchTask(ctx, h.Members, u, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	t := model.Task{ProjectID: p.ID, CreatorID: u.ID}
	if field, err := taskFromReq(req, &t); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": field})
	}
	if !h.checkAssignee(c, t.AssigneeID, p) {
		return nil
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}
	if err := h.Tasks.CreateTx(ctx, tx, &t); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}
	if err := h.Notifier.TaskAssigned(ctx, tx, u, t, nil, t.AssigneeID); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}

	if t.AssigneeID != nil && *t.AssigneeID != u.ID {
		h.Counter.Invalidate(ctx, *t.AssigneeID)
		publishTaskAssigned(c, u, t, *t.AssigneeID)
	}
	return c.JSON(http.StatusCreated, toTaskResp(t))
}

// Get handles GET /v1/tasks/:id: the task with its comments and files.
func (h *TaskHandler) Get(c echo.Context) error {
	taskID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, t, p, ok := h.loadTaskProject(c, taskID)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err = access.CanTouchTask(ctx, h.Members, u, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	comments, err := h.Comments.ListByTask(ctx, t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	files, err := h.Files.ListByTask(ctx, t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	commentOut := make([]commentResp, 0, len(comments))
	for _, cm := range comments {
		commentOut = append(commentOut, toCommentResp(cm))
	}
	fileOut := make([]fileResp, 0, len(files))
	for _, f := range files {
		fileOut = append(fileOut, toFileResp(f))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"task":     toTaskResp(t),
		"comments": commentOut,
		"files":    fileOut,
	})
}

// Update handles PUT /v1/tasks/:id.  Anyone with project access may
// edit; changing the assignee notifies the new one inside the same
// transaction as the update.
func (h *TaskHandler) Update(c echo.Context) error {
	taskID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	u, t, p, ok := h.loadTaskProject(c, taskID)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err = access.CanTouchTask(ctx, h.Members, u, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	oldAssignee := t.AssigneeID
	if field, err := taskFromReq(req, &t); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": field})
	}
	if !h.checkAssignee(c, t.AssigneeID, p) {
		return nil
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}
	if err := h.Tasks.UpdateTx(ctx, tx, &t); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repository.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}
	if err := h.Notifier.TaskAssigned(ctx, tx, u, t, oldAssignee, t.AssigneeID); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}

	reassigned := t.AssigneeID != nil && *t.AssigneeID != u.ID &&
		(oldAssignee == nil || *oldAssignee != *t.AssigneeID)
	if reassigned {
		h.Counter.Invalidate(ctx, *t.AssigneeID)
		publishTaskAssigned(c, u, t, *t.AssigneeID)
	}
	return c.JSON(http.StatusOK, toTaskResp(t))
}

// UpdateStatus handles PATCH /v1/tasks/:id/status, the quick update used
// by the board.  The assignee may move their task even without project
// access; everyone else needs access.
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	taskID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status, err := model.ParseTaskStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "status"})
	}

	u, t, p, ok := h.loadTaskProject(c, taskID)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err = access.CanQuickUpdateStatus(ctx, h.Members, u, t, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Tasks.UpdateStatus(ctx, t.ID, status); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": t.ID, "status": string(status)})
}

// Delete handles DELETE /v1/tasks/:id.  The cascade removes comments and
// files in one transaction; file bytes leave the disk after the commit.
func (h *TaskHandler) Delete(c echo.Context) error {
	taskID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, t, p, ok := h.loadTaskProject(c, taskID)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err = access.CanTouchTask(ctx, h.Members, u, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	storageNames, err := h.Tasks.DeleteCascade(ctx, t.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	_ = h.Store.RemoveAll(storageNames)
	return c.NoContent(http.StatusNoContent)
}

// AddComment handles POST /v1/tasks/:id/comments.  The comment and the
// notifications to the task's audience commit together.
func (h *TaskHandler) AddComment(c echo.Context) error {
	taskID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body required", "field": "body"})
	}

	u, t, p, ok := h.loadTaskProject(c, taskID)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err = access.CanTouchTask(ctx, h.Members, u, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	cm := model.Comment{TaskID: t.ID, AuthorID: u.ID, Body: req.Body}
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "comment failed"})
	}
	if err := h.Comments.CreateTx(ctx, tx, &cm); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "comment failed"})
	}
	if err := h.Notifier.CommentAdded(ctx, tx, u, t, p.OwnerID); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "comment failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "comment failed"})
	}

	recipients := notify.CommentRecipients(u.ID, t, p.OwnerID)
	if len(recipients) > 0 {
		h.Counter.Invalidate(ctx, recipients...)
		publishTaskCommented(c, u, t, recipients)
	}
	cm.AuthorUsername = u.Username
	return c.JSON(http.StatusCreated, toCommentResp(cm))
}
