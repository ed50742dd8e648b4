package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/model"
)

// memberSet is an in-memory MembershipSource for tests.
type memberSet map[[2]uint64]bool

func (m memberSet) IsMember(_ context.Context, projectID, userID uint64) (bool, error) {
	return m[[2]uint64{projectID, userID}], nil
}

func ptr(v uint64) *uint64 { return &v }

func TestCanAccessProject(t *testing.T) {
	ctx := context.Background()
	p := model.Project{ID: 1, OwnerID: 10}
	members := memberSet{{1, 20}: true}

	owner := model.User{ID: 10}
	member := model.User{ID: 20}
	outsider := model.User{ID: 30}

	ok, err := CanAccessProject(ctx, members, owner, p)
	require.NoError(t, err)
	assert.True(t, ok, "owner has access without a membership row")

	ok, err = CanAccessProject(ctx, members, member, p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanAccessProject(ctx, members, outsider, p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanEditProjectOwnerOnly(t *testing.T) {
	p := model.Project{ID: 1, OwnerID: 10}
	assert.True(t, CanEditProject(model.User{ID: 10}, p))
	assert.False(t, CanEditProject(model.User{ID: 20}, p))
	// Admin role grants no project-level powers.
	assert.False(t, CanEditProject(model.User{ID: 99, RoleName: model.RoleAdmin}, p))
}

func TestCanQuickUpdateStatus(t *testing.T) {
	ctx := context.Background()
	p := model.Project{ID: 1, OwnerID: 10}
	members := memberSet{}

	// Assignee without any membership may still move their own task.
	task := model.Task{ID: 5, ProjectID: 1, AssigneeID: ptr(40)}
	ok, err := CanQuickUpdateStatus(ctx, members, model.User{ID: 40}, task, p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanQuickUpdateStatus(ctx, members, model.User{ID: 41}, task, p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanUploadTaskFile(t *testing.T) {
	p := model.Project{ID: 1, OwnerID: 10}
	task := model.Task{ID: 5, ProjectID: 1, AssigneeID: ptr(20)}

	assert.True(t, CanUploadTaskFile(model.User{ID: 10}, task, p), "owner")
	assert.True(t, CanUploadTaskFile(model.User{ID: 20}, task, p), "assignee")
	assert.False(t, CanUploadTaskFile(model.User{ID: 30}, task, p), "member without assignment")

	unassigned := model.Task{ID: 6, ProjectID: 1}
	assert.False(t, CanUploadTaskFile(model.User{ID: 20}, unassigned, p))
}

func TestCanTouchFileMatrix(t *testing.T) {
	p := model.Project{ID: 1, OwnerID: 10}
	task := model.Task{ID: 5, ProjectID: 1, AssigneeID: ptr(20)}

	uploader := model.User{ID: 30}
	owner := model.User{ID: 10}
	assignee := model.User{ID: 20}
	bystander := model.User{ID: 40}

	taskFile := model.File{ID: 1, UploaderID: 30, TaskID: ptr(5)}
	assert.True(t, CanTouchFile(uploader, taskFile, &task, &p))
	assert.True(t, CanTouchFile(owner, taskFile, &task, &p))
	assert.True(t, CanTouchFile(assignee, taskFile, &task, &p))
	assert.False(t, CanTouchFile(bystander, taskFile, &task, &p))

	projectFile := model.File{ID: 2, UploaderID: 30, ProjectID: ptr(1)}
	assert.True(t, CanTouchFile(uploader, projectFile, nil, &p))
	assert.True(t, CanTouchFile(owner, projectFile, nil, &p))
	assert.False(t, CanTouchFile(assignee, projectFile, nil, &p), "assignee has no claim via a project-level file")

	orphan := model.File{ID: 3, UploaderID: 30}
	assert.True(t, CanTouchFile(uploader, orphan, nil, nil))
	assert.False(t, CanTouchFile(owner, orphan, nil, nil), "parentless file is uploader-only")
}

func TestCanToggleActivation(t *testing.T) {
	admin := model.User{ID: 1, RoleName: model.RoleAdmin}
	regular := model.User{ID: 2, RoleName: model.RoleUser}

	assert.True(t, CanToggleActivation(admin, 2))
	assert.False(t, CanToggleActivation(admin, 1), "self-deactivation is blocked")
	assert.False(t, CanToggleActivation(regular, 1))
}
