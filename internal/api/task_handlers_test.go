package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createList creates a list via the API and returns its response.
func (ts *testServer) createList(t *testing.T, token, title string) ListResponse {
	t.Helper()

	resp := ts.api.Post("/lists/create", bearer(token), map[string]any{"title": title})
	require.Equal(t, http.StatusCreated, resp.Code, "Create list failed: %s", resp.Body.String())

	var envelope testEnvelope[ListResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

// createTask creates a task via the API and returns its response.
func (ts *testServer) createTask(t *testing.T, token, listID, title string) TaskResponse {
	t.Helper()

	resp := ts.api.Post("/tasks/create", bearer(token), map[string]any{
		"list_id": listID,
		"title":   title,
	})
	require.Equal(t, http.StatusCreated, resp.Code, "Create task failed: %s", resp.Body.String())

	var envelope testEnvelope[TaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

// createSubtask creates a subtask via the API and returns its response.
func (ts *testServer) createSubtask(t *testing.T, token, taskID, title string) SubtaskResponse {
	t.Helper()

	resp := ts.api.Post("/subtasks/create/"+taskID, bearer(token), map[string]any{
		"title": title,
	})
	require.Equal(t, http.StatusCreated, resp.Code, "Create subtask failed: %s", resp.Body.String())

	var envelope testEnvelope[SubtaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestLists_CreateAndGet(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "lists@test.com")
	list := ts.createList(t, reg.AccessToken, "Groceries")

	assert.NotEmpty(t, list.ID)
	assert.Equal(t, reg.User.ID, list.OwnerID)
	assert.Empty(t, list.Tasks)

	resp := ts.api.Get("/lists/"+list.ID, bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Groceries", envelope.Data.Title)

	// The list shows up in the user's collection.
	resp = ts.api.Get("/lists", bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var listsEnvelope testEnvelope[ListsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listsEnvelope))
	require.Len(t, listsEnvelope.Data.Lists, 1)
	assert.Equal(t, list.ID, listsEnvelope.Data.Lists[0].ID)
}

func TestLists_ValidationDetails(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "valid@test.com")

	resp := ts.api.Post("/lists/create", bearer(reg.AccessToken), map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Contains(t, envelope.Details, "title")
}

func TestLists_CrossOwnerHidden(t *testing.T) {
	ts := setupTestServer(t)

	ada := ts.registerUser(t, "ada@test.com")
	eve := ts.registerUser(t, "eve@test.com")

	list := ts.createList(t, ada.AccessToken, "Private")

	// Another user can't read, update, or delete the list. The response
	// is the same 400 a missing ID gets, so existence doesn't leak.
	resp := ts.api.Get("/lists/"+list.ID, bearer(eve.AccessToken))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Patch("/lists/update/"+list.ID, bearer(eve.AccessToken),
		map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Delete("/lists/delete/"+list.ID, bearer(eve.AccessToken))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/lists/missing-id", bearer(eve.AccessToken))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// The owner still sees it untouched.
	resp = ts.api.Get("/lists/"+list.ID, bearer(ada.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Private", envelope.Data.Title)
}

func TestTasks_CompleteTogglesCompletedAt(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "complete@test.com")
	list := ts.createList(t, reg.AccessToken, "Work")
	task := ts.createTask(t, reg.AccessToken, list.ID, "Write report")

	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedAt)

	resp := ts.api.Patch("/tasks/complete/"+task.ID, bearer(reg.AccessToken),
		map[string]any{"is_completed": true})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[TaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.IsCompleted)
	assert.NotNil(t, envelope.Data.CompletedAt)

	resp = ts.api.Patch("/tasks/complete/"+task.ID, bearer(reg.AccessToken),
		map[string]any{"is_completed": false})
	require.Equal(t, http.StatusOK, resp.Code)

	envelope = testEnvelope[TaskResponse]{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.IsCompleted)
	assert.Nil(t, envelope.Data.CompletedAt)
}

func TestTasks_MoveBetweenLists(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "move@test.com")
	home := ts.createList(t, reg.AccessToken, "Home")
	work := ts.createList(t, reg.AccessToken, "Work")
	task := ts.createTask(t, reg.AccessToken, home.ID, "Errand")

	resp := ts.api.Patch("/tasks/update/"+task.ID, bearer(reg.AccessToken),
		map[string]any{"list_id": work.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[TaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, work.ID, envelope.Data.ListID)

	// Both list task sets reflect the move.
	resp = ts.api.Get("/lists/"+home.ID+"/tasks", bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var homeTasks testEnvelope[TasksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &homeTasks))
	assert.Empty(t, homeTasks.Data.Tasks)

	resp = ts.api.Get("/lists/"+work.ID+"/tasks", bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var workTasks testEnvelope[TasksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &workTasks))
	require.Len(t, workTasks.Data.Tasks, 1)
	assert.Equal(t, task.ID, workTasks.Data.Tasks[0].ID)
}

func TestTasks_MoveToForeignListRejected(t *testing.T) {
	ts := setupTestServer(t)

	ada := ts.registerUser(t, "ada2@test.com")
	eve := ts.registerUser(t, "eve2@test.com")

	adaList := ts.createList(t, ada.AccessToken, "Ada's")
	eveList := ts.createList(t, eve.AccessToken, "Eve's")
	task := ts.createTask(t, ada.AccessToken, adaList.ID, "Stay put")

	resp := ts.api.Patch("/tasks/update/"+task.ID, bearer(ada.AccessToken),
		map[string]any{"list_id": eveList.ID})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Task did not move.
	resp = ts.api.Get("/tasks/"+task.ID, bearer(ada.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[TaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, adaList.ID, envelope.Data.ListID)
}

func TestLists_DeleteCascades(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "cascade@test.com")
	list := ts.createList(t, reg.AccessToken, "Project")
	task := ts.createTask(t, reg.AccessToken, list.ID, "Parent")
	subtask := ts.createSubtask(t, reg.AccessToken, task.ID, "Child")

	resp := ts.api.Delete("/lists/delete/"+list.ID, bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// The list, its task, and the task's subtask are all gone.
	resp = ts.api.Get("/lists/"+list.ID, bearer(reg.AccessToken))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/tasks/"+task.ID, bearer(reg.AccessToken))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Patch("/subtasks/update/"+subtask.ID, bearer(reg.AccessToken),
		map[string]any{"title": "Still here?"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubtasks_CompleteAndDelete(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "subtasks@test.com")
	list := ts.createList(t, reg.AccessToken, "List")
	task := ts.createTask(t, reg.AccessToken, list.ID, "Task")
	subtask := ts.createSubtask(t, reg.AccessToken, task.ID, "Step one")

	resp := ts.api.Patch("/subtasks/complete/"+subtask.ID, bearer(reg.AccessToken),
		map[string]any{"is_completed": true})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[SubtaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.IsCompleted)
	assert.NotNil(t, envelope.Data.CompletedAt)

	resp = ts.api.Delete("/subtasks/delete/"+subtask.ID, bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	// Detached from the parent task.
	resp = ts.api.Get("/tasks/"+task.ID+"/subtasks", bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var remaining testEnvelope[SubtasksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &remaining))
	assert.Empty(t, remaining.Data.Subtasks)
}

func TestTasks_CreateInForeignListRejected(t *testing.T) {
	ts := setupTestServer(t)

	ada := ts.registerUser(t, "ada3@test.com")
	eve := ts.registerUser(t, "eve3@test.com")

	adaList := ts.createList(t, ada.AccessToken, "Ada's")

	resp := ts.api.Post("/tasks/create", bearer(eve.AccessToken), map[string]any{
		"list_id": adaList.ID,
		"title":   "Intruder",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTasks_CreateWithoutList(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "unlisted@test.com")

	// A bare title is enough; no list required.
	resp := ts.api.Post("/tasks/create", bearer(reg.AccessToken),
		map[string]any{"title": "Standalone"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var envelope testEnvelope[TaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.ListID)
	assert.Equal(t, reg.User.ID, envelope.Data.OwnerID)

	resp = ts.api.Get("/tasks/"+envelope.Data.ID, bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Standalone", envelope.Data.Title)
	assert.Empty(t, envelope.Data.ListID)
}

func TestTasks_GetAllSpansListedAndUnlisted(t *testing.T) {
	ts := setupTestServer(t)

	ada := ts.registerUser(t, "ada4@test.com")
	eve := ts.registerUser(t, "eve4@test.com")

	list := ts.createList(t, ada.AccessToken, "Chores")
	listed := ts.createTask(t, ada.AccessToken, list.ID, "Dishes")
	ts.createTask(t, eve.AccessToken, ts.createList(t, eve.AccessToken, "Other").ID, "Not ada's")

	resp := ts.api.Post("/tasks/create", bearer(ada.AccessToken),
		map[string]any{"title": "Loose end"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var created testEnvelope[TaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = ts.api.Get("/tasks", bearer(ada.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var all testEnvelope[TasksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &all))
	require.Len(t, all.Data.Tasks, 2)

	ids := map[string]bool{}
	for _, task := range all.Data.Tasks {
		ids[task.ID] = true
	}
	assert.True(t, ids[listed.ID])
	assert.True(t, ids[created.Data.ID])
}

func TestTasks_DetachFromList(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "detach@test.com")
	list := ts.createList(t, reg.AccessToken, "Inbox")
	task := ts.createTask(t, reg.AccessToken, list.ID, "Float free")

	// An explicit empty list_id detaches the task from its list.
	resp := ts.api.Patch("/tasks/update/"+task.ID, bearer(reg.AccessToken),
		map[string]any{"list_id": ""})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[TaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.ListID)

	resp = ts.api.Get("/lists/"+list.ID+"/tasks", bearer(reg.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var listTasks testEnvelope[TasksResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listTasks))
	assert.Empty(t, listTasks.Data.Tasks)

	// Re-attaching works the same way.
	resp = ts.api.Patch("/tasks/update/"+task.ID, bearer(reg.AccessToken),
		map[string]any{"list_id": list.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, list.ID, envelope.Data.ListID)
}

func TestSubtasks_DescriptionRoundTrip(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "subdesc@test.com")
	list := ts.createList(t, reg.AccessToken, "List")
	task := ts.createTask(t, reg.AccessToken, list.ID, "Task")

	resp := ts.api.Post("/subtasks/create/"+task.ID, bearer(reg.AccessToken), map[string]any{
		"title":       "Step one",
		"description": "Gather the parts",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var envelope testEnvelope[SubtaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Gather the parts", envelope.Data.Description)

	resp = ts.api.Patch("/subtasks/update/"+envelope.Data.ID, bearer(reg.AccessToken),
		map[string]any{"description": "Gather all the parts"})
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Gather all the parts", envelope.Data.Description)
	assert.Equal(t, "Step one", envelope.Data.Title)
}

func TestDeleteAccount_RemovesUnlistedTasks(t *testing.T) {
	ts := setupTestServer(t)

	reg := ts.registerUser(t, "gone@test.com")

	resp := ts.api.Post("/tasks/create", bearer(reg.AccessToken),
		map[string]any{"title": "Orphan-to-be"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Delete("/users/delete", bearer(reg.AccessToken),
		map[string]any{"password": "password123"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// The cascade reaches tasks that were never in a list.
	tasks, err := ts.store.ListAllTasks(context.Background())
	require.NoError(t, err)
	for _, task := range tasks {
		assert.NotEqual(t, reg.User.ID, task.OwnerID)
	}
}
