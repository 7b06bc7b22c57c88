package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"taskhub/internal/auth"
	"taskhub/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		verifier   *fakeVerifier
		wantStatus int
		wantKind   string
	}{
		{
			name:       "missing_header",
			header:     "",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
			wantKind:   "Unauthorized",
		},
		{
			name:       "wrong_scheme",
			header:     "Basic abc123",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
			wantKind:   "Unauthorized",
		},
		{
			name:       "three_parts",
			header:     "Bearer abc def",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
			wantKind:   "Unauthorized",
		},
		{
			name:       "bearer_no_token",
			header:     "Bearer",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
			wantKind:   "Unauthorized",
		},
		{
			name:       "expired_token",
			header:     "Bearer sometoken",
			verifier:   &fakeVerifier{err: auth.ErrTokenExpired},
			wantStatus: http.StatusUnauthorized,
			wantKind:   "TokenExpired",
		},
		{
			name:       "invalid_token",
			header:     "Bearer sometoken",
			verifier:   &fakeVerifier{err: auth.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
			wantKind:   "InvalidToken",
		},
		{
			name:   "valid_token",
			header: "Bearer sometoken",
			verifier: &fakeVerifier{claims: &auth.Claims{
				UserID: "user-1",
				Email:  "a@x.com",
			}},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			mw := middlewares.NewAuthMiddleware(tt.verifier)

			r := gin.New()
			r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
				id, ok := middlewares.UserIDFromContext(c)
				if !ok {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"id": id})
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantKind != "" {
				var body map[string]string
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("invalid json body: %v", err)
				}
				if body["error"] != tt.wantKind {
					t.Fatalf("got error kind %q, want %q", body["error"], tt.wantKind)
				}
			}

			if tt.wantStatus == http.StatusOK {
				var body map[string]string
				_ = json.Unmarshal(w.Body.Bytes(), &body)
				if body["id"] != "user-1" {
					t.Fatalf("identity not propagated, body=%s", w.Body.String())
				}
			}
		})
	}
}
