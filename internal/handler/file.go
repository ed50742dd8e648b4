package handler

import (
	"errors"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/access"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/storage"
)

// FileHandler serves uploads, downloads and deletion of attachments.
// The database row is the source of truth; the bytes on disk follow it.
type FileHandler struct {
	MaxBytes int64
	Files    *repository.FileRepo
	Tasks    *repository.TaskRepo
	Projects *repository.ProjectRepo
	Members  *repository.MemberRepo
	Users    *repository.UserRepo
	Store    *storage.Store
}

// ----- DTOs -----

type fileResp struct {
	ID           uint64    `json:"id"`
	UploaderID   uint64    `json:"uploader_id"`
	TaskID       *uint64   `json:"task_id"`
	ProjectID    *uint64   `json:"project_id"`
	OriginalName string    `json:"original_name"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func toFileResp(f model.File) fileResp {
	return fileResp{ID: f.ID, UploaderID: f.UploaderID, TaskID: f.TaskID,
		ProjectID: f.ProjectID, OriginalName: f.OriginalName, UploadedAt: f.UploadedAt}
}

// allowedExtsMessage renders the allow-list for rejection responses in a
// stable order.
func (h *FileHandler) allowedExtsMessage() string {
	exts := make([]string, 0, len(h.Store.Allowed))
	for e := range h.Store.Allowed {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return "allowed extensions: " + strings.Join(exts, ", ")
}

// save runs the shared upload tail: size and extension checks, write the
// bytes, insert the record, and undo the write if the insert fails.
func (h *FileHandler) save(c echo.Context, f *model.File) error {
	src, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file field required", "field": "file"})
	}
	if h.MaxBytes > 0 && src.Size > h.MaxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	if !h.Store.IsAllowed(src.Filename) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file type not allowed; " + h.allowedExtsMessage(),
			"field": "file",
		})
	}

	storageName, err := h.Store.StorageName(src.Filename)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	reader, err := src.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable upload"})
	}
	defer reader.Close()
	if err := h.Store.Save(storageName, reader); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	f.StorageName = storageName
	f.OriginalName = src.Filename

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Files.Create(ctx, f); err != nil {
		_ = h.Store.Remove(storageName) // keep disk and table in step
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	return c.JSON(http.StatusCreated, toFileResp(*f))
}

// UploadToTask handles POST /v1/tasks/:id/files.  Project owner or task
// assignee only.
func (h *FileHandler) UploadToTask(c echo.Context) error {
	taskID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := currentUser(ctx, h.Users, c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	p, err := h.Projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !access.CanUploadTaskFile(u, t, p) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return h.save(c, &model.File{UploaderID: u.ID, TaskID: &t.ID})
}

// UploadToProject handles POST /v1/projects/:id/files.  Owner or member.
func (h *FileHandler) UploadToProject(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
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
	ok, err := access.CanUploadProjectFile(ctx, h.Members, u, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return h.save(c, &model.File{UploaderID: u.ID, ProjectID: &p.ID})
}

// authorize loads the file's parent chain and applies the access matrix
// for download and delete.  On failure it writes the response itself and
// reports ok=false; the calling handler then returns nil.
func (h *FileHandler) authorize(c echo.Context, fileID uint64) (model.File, bool) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := currentUser(ctx, h.Users, c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return model.File{}, false
	}
	f, err := h.Files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return f, false
	}

	var (
		task    *model.Task
		project *model.Project
	)
	if f.TaskID != nil {
		t, err := h.Tasks.GetByID(ctx, *f.TaskID)
		if err != nil {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			return f, false
		}
		task = &t
		p, err := h.Projects.GetByID(ctx, t.ProjectID)
		if err != nil {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			return f, false
		}
		project = &p
	} else if f.ProjectID != nil {
		p, err := h.Projects.GetByID(ctx, *f.ProjectID)
		if err != nil {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			return f, false
		}
		project = &p
	}

	if !access.CanTouchFile(u, f, task, project) {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return f, false
	}
	return f, true
}

// Download handles GET /v1/files/:id.  Served as an attachment under the
// original filename; the storage name never leaves the server.
func (h *FileHandler) Download(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	f, ok := h.authorize(c, fileID)
	if !ok {
		return nil
	}
	path := h.Store.Path(f.StorageName)
	if _, err := os.Stat(path); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "file content missing"})
	}
	return c.Attachment(path, f.OriginalName)
}

// Delete handles DELETE /v1/files/:id.  The row is removed before the
// bytes; an orphaned blob is unreachable through the API.
func (h *FileHandler) Delete(c echo.Context) error {
	fileID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	f, ok := h.authorize(c, fileID)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Files.Delete(ctx, f.ID); err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	_ = h.Store.Remove(f.StorageName)
	return c.NoContent(http.StatusNoContent)
}
