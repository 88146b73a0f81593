// internal/server/server_test.go
package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrition-meter/internal/config"
	"nutrition-meter/internal/models"
	"nutrition-meter/internal/storage"
)

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func newTestServer(t *testing.T) *TrackerServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stor, err := storage.NewSQLiteStorage(storage.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { stor.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newTrackerServer(config.Default(), stor, log)
}

func post(t *testing.T, s *TrackerServer, name string, args map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeText(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res toolResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), target))
}

func callView(t *testing.T, s *TrackerServer, name string, args map[string]interface{}) models.View {
	t.Helper()
	var view models.View
	decodeText(t, post(t, s, name, args), &view)
	return view
}

func TestAddItemAndTotals(t *testing.T) {
	s := newTestServer(t)

	view := callView(t, s, "add_item", map[string]interface{}{
		"name": "burger", "calories": 500, "protein": "25", "carbs": 40, "fat": "25",
	})
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.False(t, view.InputError)
	assert.False(t, view.Warning)

	view = callView(t, s, "add_item", map[string]interface{}{
		"name": "shake", "calories": "600", "protein": 10, "carbs": 90, "fat": 20,
	})
	require.Len(t, view.Items, 2)
	assert.Equal(t, 1100.0, view.Totals.Calories)
	assert.True(t, view.Warning)
	require.Len(t, view.Chart, 4)
	assert.Equal(t, 1100.0, view.Chart[0].Value)
}

func TestAddItemInvalidReportsErrorFlag(t *testing.T) {
	s := newTestServer(t)

	view := callView(t, s, "add_item", map[string]interface{}{
		"name": "", "calories": -5, "protein": 1, "carbs": 1, "fat": 1,
	})
	assert.Empty(t, view.Items)
	assert.True(t, view.InputError)
	assert.Equal(t, []string{"name", "calories"}, view.InvalidFields)
}

func TestEditUpdateFlow(t *testing.T) {
	s := newTestServer(t)
	view := callView(t, s, "add_item", map[string]interface{}{
		"name": "toast", "calories": 80, "protein": 3, "carbs": 15, "fat": 1,
	})
	id := view.Items[0].ID

	view = callView(t, s, "change_quantity", map[string]interface{}{"id": id, "delta": -5})
	assert.Equal(t, 1, view.Items[0].Quantity)

	view = callView(t, s, "edit_item", map[string]interface{}{"id": id})
	assert.Equal(t, models.EditEditing, view.EditMode.State)
	assert.Equal(t, id, view.EditMode.ItemID)
	assert.Equal(t, "toast", view.Input.Name)

	view = callView(t, s, "update_item", map[string]interface{}{"name": "bagel", "calories": 250})
	assert.Equal(t, models.EditIdle, view.EditMode.State)
	require.Len(t, view.Items, 1)
	assert.Equal(t, id, view.Items[0].ID)
	assert.Equal(t, "bagel", view.Items[0].Name)
	assert.Equal(t, 250.0, view.Items[0].Calories)
}

func TestDeleteAndClear(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"a", "b"} {
		callView(t, s, "add_item", map[string]interface{}{
			"name": name, "calories": 10, "protein": 1, "carbs": 1, "fat": 1,
		})
	}

	before := callView(t, s, "get_state", nil)
	after := callView(t, s, "delete_item", map[string]interface{}{"id": 999})
	assert.Equal(t, before.Items, after.Items)

	view := callView(t, s, "delete_item", map[string]interface{}{"id": before.Items[0].ID})
	require.Len(t, view.Items, 1)
	assert.Equal(t, "b", view.Items[0].Name)

	view = callView(t, s, "clear_items", nil)
	assert.Empty(t, view.Items)
}

func TestRecommendationFlow(t *testing.T) {
	s := newTestServer(t)

	view := callView(t, s, "open_drawer", nil)
	assert.True(t, view.DrawerOpen)

	for field, value := range map[string]interface{}{
		"age": 30, "height": "180", "weight": 80, "gender": "male", "activityLevel": "sedentary",
	} {
		callView(t, s, "set_user_metric", map[string]interface{}{"field": field, "value": value})
	}

	view = callView(t, s, "get_state", nil)
	assert.Equal(t, models.Recommendation{}, view.Recommendation)

	view = callView(t, s, "compute_recommendation", nil)
	assert.InDelta(t, 2136.00, view.Recommendation.Calories, 1e-9)
	assert.InDelta(t, 160.20, view.Recommendation.Protein, 1e-9)
	assert.InDelta(t, 267.00, view.Recommendation.Carbs, 1e-9)
	assert.InDelta(t, 47.47, view.Recommendation.Fat, 1e-9)

	view = callView(t, s, "close_drawer", nil)
	assert.False(t, view.DrawerOpen)
}

func TestSetUserMetricRejectsBadValues(t *testing.T) {
	s := newTestServer(t)

	w := post(t, s, "set_user_metric", map[string]interface{}{"field": "weight", "value": "heavy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, s, "set_user_metric", map[string]interface{}{"field": "shoe_size", "value": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, s, "set_user_metric", map[string]interface{}{"value": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)

	w := post(t, s, "make_coffee", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post(t, s, "delete_item", map[string]interface{}{"id": "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryRecordsMutationsInOrder(t *testing.T) {
	s := newTestServer(t)

	callView(t, s, "add_item", map[string]interface{}{"name": "egg", "calories": 78, "protein": 6, "carbs": 0.6, "fat": 5})
	callView(t, s, "add_item", map[string]interface{}{"name": ""})
	callView(t, s, "get_state", nil)
	callView(t, s, "clear_items", nil)

	var history []models.ActionEntry
	decodeText(t, post(t, s, "get_history", nil), &history)

	require.Len(t, history, 3)
	assert.Equal(t, "add_item", history[0].Action)
	assert.True(t, history[0].Accepted)
	assert.Equal(t, "add_item", history[1].Action)
	assert.False(t, history[1].Accepted)
	assert.Equal(t, "clear_items", history[2].Action)
	assert.Equal(t, s.sessionID, history[2].SessionID)
}

func TestListToolsAndHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Len(t, listing.Tools, len(toolOrder))
	assert.Equal(t, "get_state", listing.Tools[0].Name)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, serverInfo.Name, health["name"])
	assert.Equal(t, serverInfo.Version, health["version"])
	assert.Equal(t, s.sessionID, health["session_id"])
}

func TestTextValueAcceptsNumbersAndStrings(t *testing.T) {
	var p InputParams
	require.NoError(t, json.Unmarshal([]byte(`{"name":"rice","calories":130.5,"fat":null}`), &p))
	require.NotNil(t, p.Name)
	assert.Equal(t, textValue("rice"), *p.Name)
	require.NotNil(t, p.Calories)
	assert.Equal(t, textValue("130.5"), *p.Calories)
	assert.Nil(t, p.Fat)
	assert.Nil(t, p.Protein)

	assert.Error(t, json.Unmarshal([]byte(`{"carbs":true}`), &p))
}

func TestConcurrentCallsAreSerialised(t *testing.T) {
	s := newTestServer(t)
	view := callView(t, s, "add_item", map[string]interface{}{
		"name": "rice", "calories": 130, "protein": 3, "carbs": 28, "fat": 0.3,
	})
	id := view.Items[0].ID

	const calls = 50
	codes := make([]int, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = post(t, s, "change_quantity", map[string]interface{}{"id": id, "delta": 1}).Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	view = callView(t, s, "get_state", nil)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1+calls, view.Items[0].Quantity)

	var history []models.ActionEntry
	decodeText(t, post(t, s, "get_history", map[string]interface{}{"limit": 100}), &history)
	assert.Len(t, history, 1+calls)
}
