package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskStatus(t *testing.T) {
	for _, s := range TaskStatuses() {
		got, err := ParseTaskStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	for _, bad := range []string{"FROZEN", "todo", "Done", "", "IN PROGRESS"} {
		_, err := ParseTaskStatus(bad)
		assert.Error(t, err, "status %q must be rejected", bad)
	}
}

func TestParseTaskPriority(t *testing.T) {
	for _, p := range TaskPriorities() {
		got, err := ParseTaskPriority(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	for _, bad := range []string{"URGENT", "low", ""} {
		_, err := ParseTaskPriority(bad)
		assert.Error(t, err, "priority %q must be rejected", bad)
	}
}

func TestUserIsAdmin(t *testing.T) {
	assert.True(t, User{RoleName: RoleAdmin}.IsAdmin())
	assert.False(t, User{RoleName: RoleUser}.IsAdmin())
	assert.False(t, User{}.IsAdmin())
}
