package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/access"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

// AdminHandler serves the user administration surface.  The router
// mounts it behind the Admin role check, so handlers here only enforce
// the rules the role alone cannot express, like self-deactivation.
type AdminHandler struct {
	Users *repository.UserRepo
}

type adminUserResp struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type adminUpdateReq struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

func toAdminUserResp(u model.User) adminUserResp {
	return adminUserResp{ID: u.ID, Username: u.Username, Email: u.Email,
		Role: u.RoleName, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, toAdminUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateUser handles PUT /v1/admin/users/:id.  Role and active flag are
// each optional; absent fields are left untouched.  Role names come from
// the closed set {User, Admin}, and an admin cannot deactivate their own
// account.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	targetID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Role == nil && req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.Role != nil && *req.Role != model.RoleUser && *req.Role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role", "field": "role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, err := currentUser(ctx, h.Users, c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if req.IsActive != nil && !*req.IsActive && !access.CanToggleActivation(actor, targetID) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate your own account"})
	}

	if req.Role != nil {
		if err := h.Users.UpdateRole(ctx, targetID, *req.Role); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.IsActive != nil {
		if err := h.Users.SetActive(ctx, targetID, *req.IsActive); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	u, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toAdminUserResp(u))
}

// ToggleActive handles POST /v1/admin/users/:id/toggle-active, flipping
// the account's active flag.
func (h *AdminHandler) ToggleActive(c echo.Context) error {
	targetID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, err := currentUser(ctx, h.Users, c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if target.IsActive && !access.CanToggleActivation(actor, target.ID) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate your own account"})
	}
	if err := h.Users.SetActive(ctx, target.ID, !target.IsActive); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	target.IsActive = !target.IsActive
	return c.JSON(http.StatusOK, toAdminUserResp(target))
}
