package logic

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcoach-backend/internal/db"
)

// 测试 CRUD 接口都需要登录
func TestAPIRequiresUser(t *testing.T) {
	_, router := setupTestServer(t, &fakeCompleter{})
	for _, target := range []string{"/api/entries", "/api/profile", "/api/goals", "/api/messages/latest", "/api/motivation"} {
		w := doRequest(router, "GET", target, "", nil)
		assert.Equal(t, 401, w.Code, target)
	}

	// query 里的 token 只对 websocket 有效
	token := bearer(t, "u1")[len("Bearer "):]
	w := doRequest(router, "GET", "/api/goals?access_token="+token, "", nil)
	assert.Equal(t, 401, w.Code)
}

// 测试每日记录的写入和读取
func TestEntryHandlers(t *testing.T) {
	_, router := setupTestServer(t, &fakeCompleter{})
	auth := bearer(t, "u1")

	w := doRequest(router, "PUT", "/api/entries/2024-5-1", auth, map[string]any{"food": "x"})
	assert.Equal(t, 400, w.Code)

	w = doRequest(router, "GET", "/api/entries/2024-05-01", auth, nil)
	assert.Equal(t, 404, w.Code)

	w = doRequest(router, "PUT", "/api/entries/2024-05-01", auth, map[string]any{
		"food":           "oatmeal",
		"journal":        "felt good",
		"llm_analysis":   "balanced",
		"nutrition_info": map[string]any{"calories": 400},
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	w = doRequest(router, "PUT", "/api/entries/2024-05-01", auth, map[string]any{"food": "pancakes"})
	require.Equal(t, 200, w.Code)

	w = doRequest(router, "GET", "/api/entries/2024-05-01", auth, nil)
	require.Equal(t, 200, w.Code)
	entry := decode(t, w)
	assert.Equal(t, "pancakes", entry["food"])
	assert.Equal(t, "", entry["journal"])
	assert.Nil(t, entry["nutrition_info"])

	// 其他用户看不到
	w = doRequest(router, "GET", "/api/entries/2024-05-01", bearer(t, "u2"), nil)
	assert.Equal(t, 404, w.Code)
}

func TestListEntriesHandler(t *testing.T) {
	s, router := setupTestServer(t, &fakeCompleter{})
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := s.store.UpsertDailyEntry(ctx, "u1", fmt.Sprintf("2024-05-0%d", i), db.EntryFields{})
		require.NoError(t, err)
	}
	auth := bearer(t, "u1")

	w := doRequest(router, "GET", "/api/entries?since=2024-05-02&limit=2", auth, nil)
	require.Equal(t, 200, w.Code)
	entries := decode(t, w)["entries"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-05-05", entries[0].(map[string]any)["date"])
	assert.Equal(t, "2024-05-04", entries[1].(map[string]any)["date"])

	assert.Equal(t, 400, doRequest(router, "GET", "/api/entries?since=yesterday", auth, nil).Code)
	assert.Equal(t, 400, doRequest(router, "GET", "/api/entries?limit=-1", auth, nil).Code)

	w = doRequest(router, "GET", "/api/entries", bearer(t, "u2"), nil)
	require.Equal(t, 200, w.Code)
	assert.Empty(t, decode(t, w)["entries"])
}

// 测试用户资料
func TestProfileHandlers(t *testing.T) {
	_, router := setupTestServer(t, &fakeCompleter{})
	auth := bearer(t, "u1")

	assert.Equal(t, 404, doRequest(router, "GET", "/api/profile", auth, nil).Code)
	assert.Equal(t, 400, doRequest(router, "PUT", "/api/profile", auth, map[string]any{"weight": -1}).Code)

	w := doRequest(router, "PUT", "/api/profile", auth, map[string]any{
		"user_id": "someone-else",
		"age":     28,
		"weight":  70.5,
		"gender":  "male",
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	w = doRequest(router, "GET", "/api/profile", auth, nil)
	require.Equal(t, 200, w.Code)
	profile := decode(t, w)
	assert.Equal(t, "u1", profile["user_id"])
	assert.Equal(t, 28.0, profile["age"])
	assert.Equal(t, 70.5, profile["weight"])
}

// 测试目标增删改查
func TestGoalHandlers(t *testing.T) {
	_, router := setupTestServer(t, &fakeCompleter{})
	auth := bearer(t, "u1")

	assert.Equal(t, 400, doRequest(router, "POST", "/api/goals", auth, map[string]any{"title": " "}).Code)
	assert.Equal(t, 400, doRequest(router, "POST", "/api/goals", auth, map[string]any{"title": "x", "target_date": "soon"}).Code)

	w := doRequest(router, "POST", "/api/goals", auth, map[string]any{
		"title":       "Lose 5kg",
		"category":    "weight",
		"target_date": "2024-12-31",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	id := int(decode(t, w)["id"].(float64))

	w = doRequest(router, "GET", "/api/goals", auth, nil)
	require.Equal(t, 200, w.Code)
	assert.Len(t, decode(t, w)["goals"], 1)

	target := fmt.Sprintf("/api/goals/%d", id)
	w = doRequest(router, "PUT", target, auth, map[string]any{"title": "Lose 6kg", "category": "weight"})
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "Lose 6kg", decode(t, w)["title"])

	other := bearer(t, "u2")
	assert.Equal(t, 404, doRequest(router, "PUT", target, other, map[string]any{"title": "mine"}).Code)
	assert.Equal(t, 404, doRequest(router, "DELETE", target, other, nil).Code)
	assert.Equal(t, 400, doRequest(router, "DELETE", "/api/goals/abc", auth, nil).Code)

	assert.Equal(t, 204, doRequest(router, "DELETE", target, auth, nil).Code)
	assert.Equal(t, 404, doRequest(router, "DELETE", target, auth, nil).Code)
}

func TestSuggestedGoalsHandler(t *testing.T) {
	_, router := setupTestServer(t, &fakeCompleter{})
	w := doRequest(router, "GET", "/api/goals/suggested", bearer(t, "u1"), nil)
	require.Equal(t, 200, w.Code)

	goals := decode(t, w)["goals"].([]any)
	require.Len(t, goals, 4)
	var categories []string
	for _, g := range goals {
		categories = append(categories, g.(map[string]any)["category"].(string))
	}
	assert.Equal(t, []string{"weight", "strength", "cardio", "flexibility"}, categories)
}

// 测试每日寄语的生成和读取
func TestDailyMessageHandlers(t *testing.T) {
	fc := &fakeCompleter{reply: "Progress Analysis: on track."}
	s, router := setupTestServer(t, fc)
	ctx := context.Background()
	auth := bearer(t, "u1")

	assert.Equal(t, 404, doRequest(router, "GET", "/api/messages/latest", auth, nil).Code)

	_, err := s.store.UpsertDailyEntry(ctx, "u1", "2024-05-10", db.EntryFields{Journal: "today journal"})
	require.NoError(t, err)
	_, err = s.store.UpsertDailyEntry(ctx, "u1", "2024-05-08", db.EntryFields{Journal: "recent journal"})
	require.NoError(t, err)
	_, err = s.store.UpsertDailyEntry(ctx, "u1", "2024-05-01", db.EntryFields{Journal: "old journal"})
	require.NoError(t, err)
	_, err = s.store.UpsertProfile(ctx, "u1", db.UserProfile{Summary: "busy parent", PersonalGoals: "sleep more"})
	require.NoError(t, err)

	w := doRequest(router, "POST", "/api/messages/generate", auth, nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Equal(t, fc.reply, decode(t, w)["message"])

	call := fc.lastCall()
	assert.Contains(t, call[0].Content, "supportive health coach")
	user := call[1].Content
	assert.Contains(t, user, "recent journal")
	assert.Contains(t, user, `"profile":"busy parent"`)
	assert.Contains(t, user, `"goals":"sleep more"`)
	assert.Contains(t, user, `"today":{`)
	assert.NotContains(t, user, "old journal")

	w = doRequest(router, "GET", "/api/messages/latest", auth, nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, fc.reply, decode(t, w)["message"])
}

func TestGenerateMessageUpstreamError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("upstream down")}
	_, router := setupTestServer(t, fc)

	w := doRequest(router, "POST", "/api/messages/generate", bearer(t, "u1"), nil)
	assert.Equal(t, 500, w.Code)
	assert.JSONEq(t, `{"error":"Failed to generate message"}`, w.Body.String())
}

// 测试激励语只生成一次
func TestMotivationHandler(t *testing.T) {
	fc := &fakeCompleter{reply: "Let's go!"}
	s, router := setupTestServer(t, fc)
	auth := bearer(t, "u1")

	assert.Equal(t, 400, doRequest(router, "GET", "/api/motivation?date=today", auth, nil).Code)

	_, err := s.store.UpsertDailyEntry(context.Background(), "u1", "2024-05-10", db.EntryFields{Food: "eggs", Activity: "yoga"})
	require.NoError(t, err)

	w := doRequest(router, "GET", "/api/motivation", auth, nil)
	require.Equal(t, 200, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Let's go!", resp["message"])
	assert.Equal(t, "2024-05-10", resp["date"])
	assert.Equal(t, true, resp["generated"])

	call := fc.lastCall()
	assert.Equal(t, "", call[0].Content)
	assert.Contains(t, call[1].Content, "Food: eggs")
	assert.Contains(t, call[1].Content, "Exercise: yoga")

	w = doRequest(router, "GET", "/api/motivation?date=2024-05-10", auth, nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, false, decode(t, w)["generated"])
	assert.Equal(t, 1, fc.callCount())

	// 没有记录的日期
	w = doRequest(router, "GET", "/api/motivation?date=2024-05-11", auth, nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "New day starting", fc.lastCall()[1].Content)
}
