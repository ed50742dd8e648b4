// Package access holds the authorization predicates for the tracker.
// Every function here is a pure check over already-loaded rows plus, at
// most, a membership lookup; nothing in this package writes state or
// renders responses.  Handlers call a predicate and translate a false
// result into HTTP 403.
package access

import (
	"context"

	"github.com/taskhive/taskhive/internal/model"
)

// MembershipSource answers whether a membership row exists for a
// (project, user) pair.  repository.MemberRepo satisfies it.
type MembershipSource interface {
	IsMember(ctx context.Context, projectID, userID uint64) (bool, error)
}

// IsAdmin reports whether the user carries the Admin role.
func IsAdmin(u model.User) bool { return u.IsAdmin() }

// IsOwner reports whether the user owns the project.
func IsOwner(u model.User, p model.Project) bool { return u.ID == p.OwnerID }

// CanAccessProject reports whether the user may see the project: owners
// always can, everyone else needs a membership row.  Owners do not get a
// membership row, so the two checks are ORed rather than relying on a
// single membership scan.
func CanAccessProject(ctx context.Context, src MembershipSource, u model.User, p model.Project) (bool, error) {
	if IsOwner(u, p) {
		return true, nil
	}
	return src.IsMember(ctx, p.ID, u.ID)
}

// CanEditProject gates project edit and delete: owner only.
func CanEditProject(u model.User, p model.Project) bool { return IsOwner(u, p) }

// CanTouchTask gates task create/edit/delete and commenting: anyone with
// project access.
func CanTouchTask(ctx context.Context, src MembershipSource, u model.User, p model.Project) (bool, error) {
	return CanAccessProject(ctx, src, u, p)
}

// CanQuickUpdateStatus gates the narrow status-only update: anyone with
// project access, or the task's assignee even without access.
func CanQuickUpdateStatus(ctx context.Context, src MembershipSource, u model.User, t model.Task, p model.Project) (bool, error) {
	if t.AssigneeID != nil && *t.AssigneeID == u.ID {
		return true, nil
	}
	return CanAccessProject(ctx, src, u, p)
}

// CanUploadTaskFile gates uploads attached to a task: the project owner
// or the task's assignee.
func CanUploadTaskFile(u model.User, t model.Task, p model.Project) bool {
	if IsOwner(u, p) {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == u.ID
}

// CanUploadProjectFile gates uploads attached directly to a project:
// owner or member.
func CanUploadProjectFile(ctx context.Context, src MembershipSource, u model.User, p model.Project) (bool, error) {
	return CanAccessProject(ctx, src, u, p)
}

// CanTouchFile implements the file access matrix for download and delete.
// The allowed set depends on the file's parent:
//
//	task parent    – project owner, task assignee, file uploader
//	project parent – project owner, file uploader
//	no parent      – file uploader only
//
// The task and project arguments correspond to the file's parent chain
// and may be nil when the file has no such parent.  The parentless branch
// is unreachable through upload handlers (they always bind a parent) but
// is kept so a stray row never grants access beyond its uploader.
func CanTouchFile(u model.User, f model.File, t *model.Task, p *model.Project) bool {
	if f.UploaderID == u.ID {
		return true
	}
	switch {
	case f.TaskID != nil && t != nil && p != nil:
		if IsOwner(u, *p) {
			return true
		}
		return t.AssigneeID != nil && *t.AssigneeID == u.ID
	case f.ProjectID != nil && p != nil:
		return IsOwner(u, *p)
	}
	return false
}

// CanToggleActivation gates the admin flipping another account's active
// flag.  Admins can never deactivate themselves through this path.
func CanToggleActivation(actor model.User, targetID uint64) bool {
	return IsAdmin(actor) && actor.ID != targetID
}
