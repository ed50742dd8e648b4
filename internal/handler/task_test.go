package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/model"
)

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	// An empty handler proves validation happens before any dependency
	// is touched; a nil-pointer panic here would mean the order broke.
	h := &TaskHandler{}

	c, rec := newJSONContext(t, http.MethodPatch, "/v1/tasks/7/status", `{"status":"FROZEN"}`)
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FROZEN")
}

func TestTaskFromReqDefaults(t *testing.T) {
	var task model.Task
	field, err := taskFromReq(taskReq{Title: "  Ship it  "}, &task)
	require.NoError(t, err, "field %s", field)
	assert.Equal(t, "Ship it", task.Title)
	assert.Equal(t, model.StatusTodo, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.AssigneeID)
}

func TestTaskFromReqValidation(t *testing.T) {
	cases := []struct {
		name  string
		req   taskReq
		field string
	}{
		{"missing title", taskReq{}, "title"},
		{"blank title", taskReq{Title: "   "}, "title"},
		{"bad status", taskReq{Title: "x", Status: "FROZEN"}, "status"},
		{"bad priority", taskReq{Title: "x", Priority: "URGENT"}, "priority"},
		{"bad due date", taskReq{Title: "x", DueDate: "tomorrow"}, "due_date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var task model.Task
			field, err := taskFromReq(tc.req, &task)
			require.Error(t, err)
			assert.Equal(t, tc.field, field)
		})
	}
}

func TestTaskFromReqDueDateFormats(t *testing.T) {
	var task model.Task
	_, err := taskFromReq(taskReq{Title: "x", DueDate: "2026-09-15"}, &task)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-09-15", task.DueDate.Format("2006-01-02"))

	_, err = taskFromReq(taskReq{Title: "x", DueDate: "2026-09-15T10:30:00Z"}, &task)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)

	_, err = taskFromReq(taskReq{Title: "x", DueDate: ""}, &task)
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)
}
