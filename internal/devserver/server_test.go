package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/auth"
	"github.com/dmitrijs2005/accountlink/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	users := NewUserStore()
	require.NoError(t, users.Add("1001", "0599000000", "parent-pass", "Layla", "parent"))
	require.NoError(t, users.Add("1002", "0599111111", "student-pass", "Omar", "student"))

	srv := httptest.NewServer(NewServer(users, logging.Nop(), testSecret, time.Hour).Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestLogin_Success(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/login", `{"phone":"0599000000","password":"parent-pass"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[loginResponse](t, resp)
	assert.Equal(t, "1001", body.AccountID)
	assert.Equal(t, "Layla", body.Name)
	assert.Equal(t, "parent", body.Role)

	id, err := auth.GetAccountIDFromToken(body.Token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "1001", id)
}

func TestLogin_Failures(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"wrong password", `{"phone":"0599000000","password":"nope"}`, http.StatusUnauthorized, KindInvalidCredentials},
		{"unknown phone", `{"phone":"0500000000","password":"x"}`, http.StatusUnauthorized, KindInvalidCredentials},
		{"missing fields", `{"phone":"0599000000"}`, http.StatusBadRequest, KindBadRequest},
		{"malformed", `{`, http.StatusBadRequest, KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/login", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.kind, decode[errorResponse](t, resp).Kind)
		})
	}
}

func TestGetUser(t *testing.T) {
	srv := newTestServer(t)
	own, err := auth.GenerateToken("1001", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("1001", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken("1001", []byte("other"), time.Hour)
	require.NoError(t, err)
	ghost, err := auth.GenerateToken("9999", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	t.Run("own profile", func(t *testing.T) {
		resp := get(t, srv.URL+"/users/1001", own)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		p := decode[profileResponse](t, resp)
		assert.Equal(t, profileResponse{AccountID: "1001", Name: "Layla", Phone: "0599000000", Role: "parent"}, p)
	})

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"no token", "/users/1001", "", http.StatusUnauthorized},
		{"expired", "/users/1001", expired, http.StatusUnauthorized},
		{"wrong signature", "/users/1001", foreign, http.StatusUnauthorized},
		{"other account", "/users/1002", own, http.StatusForbidden},
		{"unknown account", "/users/9999", ghost, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv.URL+tt.path, tt.token)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv.URL+"/login", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
