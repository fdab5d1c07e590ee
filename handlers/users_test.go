package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/identity"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/middleware"
)

type fakeAccounts struct {
	taken map[string]bool
	next  string
}

func (f *fakeAccounts) CreateAccount(ctx context.Context, a identity.Account) (string, error) {
	if f.taken[a.Email] {
		return "", identity.ErrEmailExists
	}
	f.taken[a.Email] = true
	return f.next, nil
}

func newUsersRouter(t *testing.T) (*gin.Engine, map[string]string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := users.NewMemoryUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &users.User{UID: "admin1", FirstName: "Ada", LastName: "Min", Role: users.RoleAdmin}))
	require.NoError(t, repo.Create(ctx, &users.User{UID: "e1", FirstName: "Eve", LastName: "One", Email: "eve@example.com", Role: users.RoleEmployee}))

	svc := users.NewService(repo, &fakeAccounts{taken: map[string]bool{"eve@example.com": true}, next: "new-uid"})
	g := gin.New()
	NewUsersHandler(svc).Register(g, middleware.AuthMiddleware(subjectVerifier{}, nil))

	tokens := map[string]string{}
	for _, uid := range []string{"admin1", "e1", "ghost"} {
		tokens[uid] = signed(t, uid, time.Now().Add(time.Hour))
	}
	return g, tokens
}

func send(g http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestCreateUser(t *testing.T) {
	g, tok := newUsersRouter(t)
	body := `{"firstName":"Nia","lastName":"New","email":"nia@example.com","password":"secret1","role":"employee"}`

	w := send(g, http.MethodPost, "/users", tok["admin1"], body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "new-uid", out["uid"])
	assert.Equal(t, "employee", out["role"])

	w = send(g, http.MethodGet, "/users/new-uid/role", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"employee"}`, w.Body.String())
}

func TestCreateUser_Errors(t *testing.T) {
	g, tok := newUsersRouter(t)

	w := send(g, http.MethodPost, "/users", tok["e1"], `{"firstName":"A","lastName":"B","email":"a@b.c","password":"secret1","role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(g, http.MethodPost, "/users", tok["admin1"], `{"firstName":"A","lastName":"B","email":"eve@example.com","password":"secret1","role":"employee"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(g, http.MethodPost, "/users", tok["admin1"], `{"firstName":"A","lastName":"B","email":"a@b.c","password":"123","role":"employee"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Password must be at least 6 chars"}`, w.Body.String())

	w = send(g, http.MethodPost, "/users", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleAndMe(t *testing.T) {
	g, tok := newUsersRouter(t)

	assert.Equal(t, http.StatusNotFound, send(g, http.MethodGet, "/users/nobody/role", "", "").Code)

	w := send(g, http.MethodGet, "/users/me", tok["e1"], "")
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		UID     string        `json:"uid"`
		Profile users.Profile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "e1", me.UID)
	assert.Equal(t, "Eve One", me.Profile.FullName)

	assert.Equal(t, http.StatusNotFound, send(g, http.MethodGet, "/users/me", tok["ghost"], "").Code)
}
