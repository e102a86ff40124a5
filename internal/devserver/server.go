// Package devserver is a small in-memory implementation of the account API
// (POST /login, GET /users/{id}) for local runs of the CLI and for client
// tests. Tokens are HS256 JWTs.
package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/auth"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/logging"
	"github.com/gorilla/mux"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// Error kinds returned in the JSON error body.
const (
	KindBadRequest         = "bad_request"
	KindInvalidCredentials = "invalid_credentials"
	KindTokenInvalid       = "token_invalid"
	KindForbidden          = "forbidden"
	KindNotFound           = "not_found"
)

type Server struct {
	users         *UserStore
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewServer(users *UserStore, l logging.Logger, secretKey string, tokenValidity time.Duration) *Server {
	return &Server{
		users:         users,
		logger:        l.With("module", "dev_api"),
		jwtSecret:     []byte(secretKey),
		tokenValidity: tokenValidity,
	}
}

// Router returns the HTTP handler with all routes registered.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	authed := r.PathPrefix("/users").Subrouter()
	authed.Use(s.requireBearer)
	authed.HandleFunc("/{id}", s.handleGetUser).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}).Methods(http.MethodGet)
	return r
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccountID string `json:"accountId"`
	Token     string `json:"token"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

type profileResponse struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, KindBadRequest, "malformed request body")
		return
	}
	if req.Phone == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, KindBadRequest, "phone and password are required")
		return
	}

	u, err := s.users.Authenticate(req.Phone, req.Password)
	if err != nil {
		s.logger.Info(r.Context(), "login rejected", "phone", req.Phone)
		writeError(w, http.StatusUnauthorized, KindInvalidCredentials, "invalid phone number or password")
		return
	}

	token, err := auth.GenerateToken(u.AccountID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		s.logger.Error(r.Context(), "token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	s.logger.Info(r.Context(), "login", "account_id", u.AccountID)
	writeJSON(w, http.StatusOK, loginResponse{AccountID: u.AccountID, Token: token, Name: u.Name, Role: u.Role})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	caller, _ := r.Context().Value(accountIDKey).(string)
	if caller != id {
		writeError(w, http.StatusForbidden, KindForbidden, "token does not belong to this account")
		return
	}

	u, err := s.users.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, KindNotFound, "unknown account")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{AccountID: u.AccountID, Name: u.Name, Phone: u.Phone, Role: u.Role})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, KindTokenInvalid, "missing token")
			return
		}

		accountID, err := auth.GetAccountIDFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, KindTokenInvalid, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"device_id", r.Header.Get(common.DeviceIDHeaderName),
			"request_id", r.Header.Get("X-Request-ID"),
			"elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{Kind: kind, Message: msg})
}
