package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithAuth(user *model.AuthUser) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if user != nil {
		req = req.WithContext(auth.ContextWithAuth(req.Context(), user))
	}
	return req
}

func TestRequireScope(t *testing.T) {
	testCases := []struct {
		name       string
		user       *model.AuthUser
		required   string
		wantStatus int
	}{
		{
			name:       "key with read allows read",
			user:       &model.AuthUser{UserID: "u1", Method: model.MethodAPIKey, Scopes: []string{model.ScopeRead}},
			required:   model.ScopeRead,
			wantStatus: http.StatusOK,
		},
		{
			name:       "key with read denies write",
			user:       &model.AuthUser{UserID: "u1", Method: model.MethodAPIKey, Scopes: []string{model.ScopeRead}},
			required:   model.ScopeWrite,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin key allows write",
			user:       &model.AuthUser{UserID: "u1", Method: model.MethodAPIKey, Scopes: []string{model.ScopeAdmin}},
			required:   model.ScopeWrite,
			wantStatus: http.StatusOK,
		},
		{
			name:       "session allows read",
			user:       &model.AuthUser{UserID: "u1", Method: model.MethodSession},
			required:   model.ScopeRead,
			wantStatus: http.StatusOK,
		},
		{
			name:       "session allows write",
			user:       &model.AuthUser{UserID: "u1", Method: model.MethodSession},
			required:   model.ScopeWrite,
			wantStatus: http.StatusOK,
		},
		{
			name:       "session denied admin",
			user:       &model.AuthUser{UserID: "u1", Method: model.MethodSession},
			required:   model.ScopeAdmin,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no auth context",
			user:       nil,
			required:   model.ScopeRead,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireScope(tc.required)(okHandler())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithAuth(tc.user))

			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	handler := RequireSession()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithAuth(&model.AuthUser{UserID: "u1", Method: model.MethodSession}))
	if rec.Code != http.StatusOK {
		t.Errorf("session: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithAuth(&model.AuthUser{UserID: "u1", Method: model.MethodAPIKey, Scopes: []string{model.ScopeAdmin}}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("api key: expected status %d, got %d", http.StatusForbidden, rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithAuth(nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth: expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestConvenienceMiddleware(t *testing.T) {
	adminKey := &model.AuthUser{
		UserID: "u1",
		Method: model.MethodAPIKey,
		KeyID:  "key123",
		Scopes: []string{model.ScopeAdmin},
	}

	testCases := []struct {
		name       string
		middleware func() func(http.Handler) http.Handler
	}{
		{"RequireRead", RequireRead},
		{"RequireWrite", RequireWrite},
		{"RequireAdmin", RequireAdmin},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := tc.middleware()(okHandler())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithAuth(adminKey))

			// Admin should pass all
			if rec.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
		})
	}
}
