package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/server/auth"
	"github.com/gloriamundo/gloriamundo/internal/server/middleware"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, db.InitMemory())
	require.NoError(t, op.InitCache())
	t.Cleanup(func() { _ = db.Close() })
	auth.SetSecret("server-test")

	r, err := NewEngine()
	require.NoError(t, err)
	return r
}

type call struct {
	method string
	path   string
	body   any
	token  string
	anon   string
}

func do(t *testing.T, r *gin.Engine, c call) (int, gjson.Result) {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.anon != "" {
		req.Header.Set(middleware.AnonymousHeader, c.anon)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code, gjson.Parse(w.Body.String())
}

func adminToken(t *testing.T) string {
	t.Helper()
	u, err := op.UserCreate(context.Background(), "root", "rootpass", true)
	require.NoError(t, err)
	token, _, err := auth.GenerateJWTToken(u, 0)
	require.NoError(t, err)
	return token
}

func TestRegisterLoginStatus(t *testing.T) {
	r := newTestEngine(t)
	creds := map[string]any{"username": "alice", "password": "secret1"}

	code, res := do(t, r, call{method: http.MethodPost, path: "/api/v1/user/register", body: creds})
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, res.Get("data.token").String())

	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/user/register", body: creds})
	require.Equal(t, http.StatusConflict, code)

	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/user/login", body: map[string]any{"username": "alice", "password": "wrong"}})
	require.Equal(t, http.StatusUnauthorized, code)

	code, res = do(t, r, call{method: http.MethodPost, path: "/api/v1/user/login", body: creds})
	require.Equal(t, http.StatusOK, code)
	token := res.Get("data.token").String()

	code, res = do(t, r, call{method: http.MethodGet, path: "/api/v1/user/status", token: token})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "alice", res.Get("data.username").String())
	require.False(t, res.Get("data.password").Exists())

	code, _ = do(t, r, call{method: http.MethodGet, path: "/api/v1/user/status"})
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/user/change-password", token: token, body: map[string]any{"old_password": "secret1", "new_password": "secret2"}})
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/user/login", body: map[string]any{"username": "alice", "password": "secret2"}})
	require.Equal(t, http.StatusOK, code)
}

func TestChatSettings(t *testing.T) {
	r := newTestEngine(t)
	_, res := do(t, r, call{method: http.MethodPost, path: "/api/v1/user/register", body: map[string]any{"username": "bob", "password": "secret1"}})
	token := res.Get("data.token").String()

	code, res := do(t, r, call{method: http.MethodGet, path: "/api/v1/chat/settings", token: token})
	require.Equal(t, http.StatusOK, code)
	require.False(t, res.Get("data.auto_fallback_enabled").Bool())

	code, res = do(t, r, call{method: http.MethodPost, path: "/api/v1/chat/settings", token: token, body: map[string]any{"auto_fallback_enabled": true, "system_prompt": "be brief"}})
	require.Equal(t, http.StatusOK, code)
	require.True(t, res.Get("data.auto_fallback_enabled").Bool())
	require.Equal(t, "be brief", res.Get("data.system_prompt").String())

	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/chat/settings", token: token, body: map[string]any{"temperature": 5}})
	require.Equal(t, http.StatusBadRequest, code)
}

func TestConversationsAreScopedToCaller(t *testing.T) {
	r := newTestEngine(t)
	owner, other := auth.NewAnonymousID(), auth.NewAnonymousID()
	conv, err := op.ConversationGetOrCreate(context.Background(), model.Identity{AnonymousID: owner}, nil, "hello there")
	require.NoError(t, err)

	code, res := do(t, r, call{method: http.MethodGet, path: "/api/v1/conversation/list", anon: owner})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, res.Get("data").Array(), 1)

	code, res = do(t, r, call{method: http.MethodGet, path: "/api/v1/conversation/list", anon: other})
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, res.Get("data").Array())

	path := "/api/v1/conversation/" + strconv.FormatUint(uint64(conv.ID), 10)
	code, _ = do(t, r, call{method: http.MethodGet, path: path, anon: other})
	require.Equal(t, http.StatusNotFound, code)
	code, res = do(t, r, call{method: http.MethodGet, path: path, anon: owner})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, conv.ID, uint(res.Get("data.id").Uint()))

	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/conversation/delete", anon: other, body: map[string]any{"id": conv.ID}})
	require.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/conversation/delete", anon: owner, body: map[string]any{"id": conv.ID}})
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, call{method: http.MethodGet, path: path, anon: owner})
	require.Equal(t, http.StatusNotFound, code)
}

func TestModelRoutes(t *testing.T) {
	r := newTestEngine(t)
	_, err := op.CatalogSync(context.Background(), []model.ModelDescriptor{
		{ModelID: "openai/gpt-4o", DisplayName: "GPT-4o"},
	})
	require.NoError(t, err)

	code, res := do(t, r, call{method: http.MethodGet, path: "/api/v1/model/list"})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, res.Get("data").Array(), 1)
	require.Equal(t, "openai/gpt-4o", res.Get("data.0.model_id").String())

	code, _ = do(t, r, call{method: http.MethodGet, path: "/api/v1/model/last-sync"})
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/model/refresh"})
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	r := newTestEngine(t)
	_, res := do(t, r, call{method: http.MethodPost, path: "/api/v1/user/register", body: map[string]any{"username": "carol", "password": "secret1"}})
	userToken := res.Get("data.token").String()
	admin := adminToken(t)

	code, _ := do(t, r, call{method: http.MethodGet, path: "/api/v1/setting/list", token: userToken})
	require.Equal(t, http.StatusForbidden, code)
	code, _ = do(t, r, call{method: http.MethodGet, path: "/api/v1/setting/list", token: admin})
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/setting/set", token: admin, body: map[string]any{"key": "relay_log_keep_period", "value": "never"}})
	require.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/setting/set", token: admin, body: map[string]any{"key": "relay_log_keep_period", "value": "30"}})
	require.Equal(t, http.StatusOK, code)
	_, res = do(t, r, call{method: http.MethodGet, path: "/api/v1/setting/list", token: admin})
	kept := false
	for _, s := range res.Get("data").Array() {
		if s.Get("key").String() == "relay_log_keep_period" {
			kept = s.Get("value").String() == "30"
		}
	}
	require.True(t, kept)

	code, _ = do(t, r, call{method: http.MethodGet, path: "/api/v1/log/list", token: userToken})
	require.Equal(t, http.StatusForbidden, code)
	code, _ = do(t, r, call{method: http.MethodGet, path: "/api/v1/log/list", token: admin})
	require.Equal(t, http.StatusOK, code)
}

func TestBillingTransaction(t *testing.T) {
	r := newTestEngine(t)
	admin := adminToken(t)
	txn := map[string]any{"external_id": "pi_123", "user_id": 1, "amount": "9.99", "currency": "eur"}

	code, res := do(t, r, call{method: http.MethodPost, path: "/api/v1/billing/transaction", token: admin, body: txn})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "EUR", res.Get("data.currency").String())

	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/v1/billing/transaction", token: admin, body: txn})
	require.Equal(t, http.StatusConflict, code)

	code, res = do(t, r, call{method: http.MethodGet, path: "/api/v1/billing/transaction/list", token: admin})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, res.Get("data").Array(), 1)
}

func TestHealthAndChatWithoutRelay(t *testing.T) {
	r := newTestEngine(t)

	code, res := do(t, r, call{method: http.MethodGet, path: "/healthz"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", res.Get("data.status").String())

	code, _ = do(t, r, call{method: http.MethodPost, path: "/chat", body: map[string]any{"message": "hi"}})
	require.Equal(t, http.StatusServiceUnavailable, code)
}
