package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/auth"
	"taskhub/internal/domain/user"
	"taskhub/internal/http/handlers"
	"taskhub/internal/security"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake repository implementations of the handlers.UserReader/UserWriter interfaces

type fakeUsersRepo struct {
	getFn    func(ctx context.Context, email string) (user.User, error)
	createFn func(ctx context.Context, email, passwordHash, name string) (user.User, error)
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, passwordHash, name)
	}
	return user.User{
		ID:           "user-1",
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func newAuthRouter(repo *fakeUsersRepo) *gin.Engine {
	jwtManager := auth.NewManager("test-secret", time.Hour)
	h := handlers.NewAuthHandler(repo, repo, jwtManager)

	r := gin.New()
	r.POST("/api/auth/signup", h.SignUp)
	r.POST("/api/auth/login", h.Login)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestSignUpHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
		wantErrorKind  string
	}{
		{
			name:           "success",
			body:           `{"name":"A","email":"a@x.com","password":"longenough1"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_name",
			body:           `{"email":"a@x.com","password":"longenough1"}`,
			wantStatusCode: http.StatusBadRequest,
			wantErrorKind:  "ValidationError",
		},
		{
			name:           "missing_email",
			body:           `{"name":"A","password":"longenough1"}`,
			wantStatusCode: http.StatusBadRequest,
			wantErrorKind:  "ValidationError",
		},
		{
			name:           "short_password",
			body:           `{"name":"A","email":"a@x.com","password":"short"}`,
			wantStatusCode: http.StatusBadRequest,
			wantErrorKind:  "ValidationError",
		},
		{
			name: "duplicate_email_precheck",
			body: `{"name":"A","email":"a@x.com","password":"longenough1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{ID: "user-1", Email: email}, nil
				}
			},
			wantStatusCode: http.StatusConflict,
			wantErrorKind:  "Conflict",
		},
		{
			name: "duplicate_email_insert_race",
			body: `{"name":"A","email":"a@x.com","password":"longenough1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				// the pre-check misses, the unique constraint still fires
				f.createFn = func(ctx context.Context, email, passwordHash, name string) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusConflict,
			wantErrorKind:  "Conflict",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			w := doJSON(t, newAuthRouter(repo), http.MethodPost, "/api/auth/signup", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json response: %v", err)
			}

			if tt.wantErrorKind != "" {
				if body["error"] != tt.wantErrorKind {
					t.Fatalf("got error kind %v, want %s, body=%s", body["error"], tt.wantErrorKind, w.Body.String())
				}
				return
			}

			if body["token"] == "" || body["token"] == nil {
				t.Fatalf("expected a token, body=%s", w.Body.String())
			}

			u, ok := body["user"].(map[string]interface{})
			if !ok {
				t.Fatalf("expected a user object, body=%s", w.Body.String())
			}
			if u["email"] != "a@x.com" || u["name"] != "A" {
				t.Fatalf("unexpected user shape: %v", u)
			}
			if _, leaked := u["passwordHash"]; leaked {
				t.Fatalf("password hash leaked in response: %v", u)
			}
		})
	}
}

func TestSignUpTokenUsable(t *testing.T) {
	repo := &fakeUsersRepo{}

	w := doJSON(t, newAuthRouter(repo), http.MethodPost, "/api/auth/signup",
		`{"name":"A","email":"a@x.com","password":"longenough1"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("signup failed: %s", w.Body.String())
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}

	claims, err := auth.NewManager("test-secret", time.Hour).VerifyToken(body.Token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@x.com" {
		t.Fatalf("claims do not round-trip: %+v", claims)
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("longenough1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	known := user.User{
		ID:           "user-1",
		Email:        "a@x.com",
		PasswordHash: hash,
		Name:         "A",
	}

	repo := &fakeUsersRepo{
		getFn: func(ctx context.Context, email string) (user.User, error) {
			if email == known.Email {
				return known, nil
			}
			return user.User{}, user.ErrNotFound
		},
	}

	r := newAuthRouter(repo)

	t.Run("success", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"longenough1"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("missing_fields", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"a@x.com"}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("wrong_factor_is_indistinguishable", func(t *testing.T) {
		wrongPassword := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrongpassword"}`)
		unknownEmail := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"email":"nobody@x.com","password":"longenough1"}`)

		if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownEmail.Code)
		}

		// byte-identical bodies so the failing factor is never disclosed
		if wrongPassword.Body.String() != unknownEmail.Body.String() {
			t.Fatalf("failure bodies differ: %q vs %q", wrongPassword.Body.String(), unknownEmail.Body.String())
		}
	})
}
