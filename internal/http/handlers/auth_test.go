package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCredentials struct {
	registerFn func(ctx context.Context, email, password string) (auth.Session, error)
	loginFn    func(ctx context.Context, email, password string) (auth.Session, error)
}

func (f *fakeCredentials) Register(ctx context.Context, email, password string) (auth.Session, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, email, password)
	}
	return auth.Session{}, nil
}

func (f *fakeCredentials) Login(ctx context.Context, email, password string) (auth.Session, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	return auth.Session{}, nil
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error handlers.APIError `json:"error"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal error body: %v body=%s", err, w.Body.String())
	}

	return body.Error.Code
}

func authRouter(svc handlers.CredentialsService) *gin.Engine {
	h := handlers.NewAuthHandler(svc, time.Second)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	return r
}

func TestRegisterHandler_Success(t *testing.T) {
	fake := &fakeCredentials{
		registerFn: func(ctx context.Context, email, password string) (auth.Session, error) {
			if email != "a@x.com" || password != "pw1" {
				t.Fatalf("unexpected credentials %q %q", email, password)
			}

			if _, ok := ctx.Deadline(); !ok {
				t.Fatalf("expected a deadline on the service context")
			}

			return auth.Session{AccessToken: "tok", Identity: user.Identity{UserID: 1, Email: email}}, nil
		},
	}

	w := doJSON(authRouter(fake), http.MethodPost, "/register", `{"email":"a@x.com","password":"pw1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var got handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := handlers.TokenResponse{AccessToken: "tok", TokenType: "bearer", UserID: 1, Email: "a@x.com"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestRegisterHandler_Errors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "email taken", err: auth.ErrEmailTaken, wantCode: http.StatusBadRequest, wantErr: "email_taken"},
		{name: "store down", err: fmt.Errorf("%w: boom", auth.ErrStoreUnavailable), wantCode: http.StatusInternalServerError, wantErr: "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeCredentials{
				registerFn: func(context.Context, string, string) (auth.Session, error) {
					return auth.Session{}, tc.err
				},
			}

			w := doJSON(authRouter(fake), http.MethodPost, "/register", `{"email":"a@x.com","password":"pw1"}`)

			if w.Code != tc.wantCode {
				t.Fatalf("got status %d, want %d", w.Code, tc.wantCode)
			}

			if code := errorCode(t, w); code != tc.wantErr {
				t.Fatalf("got error code %q, want %q", code, tc.wantErr)
			}
		})
	}
}

func TestRegisterHandler_ValidationDoesNotReachService(t *testing.T) {
	called := false
	fake := &fakeCredentials{
		registerFn: func(context.Context, string, string) (auth.Session, error) {
			called = true
			return auth.Session{}, nil
		},
	}

	w := doJSON(authRouter(fake), http.MethodPost, "/register", `{"email":"a@x.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}

	if called {
		t.Fatalf("service should not be called for an invalid body")
	}
}

func TestLoginHandler(t *testing.T) {
	fake := &fakeCredentials{
		loginFn: func(_ context.Context, email, password string) (auth.Session, error) {
			switch {
			case email == "a@x.com" && password == "pw1":
				return auth.Session{AccessToken: "tok", Identity: user.Identity{UserID: 1, Email: email}}, nil
			case email == "down@x.com":
				return auth.Session{}, errors.New("db down")
			default:
				return auth.Session{}, auth.ErrInvalidCredentials
			}
		},
	}

	r := authRouter(fake)

	w := doJSON(r, http.MethodPost, "/login", `{"email":"a@x.com","password":"pw1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login got %d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/login", `{"email":"a@x.com","password":"bad"}`)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "invalid_credentials" {
		t.Fatalf("wrong password got %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/login", `{"email":"down@x.com","password":"pw"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("store failure got %d, want 500", w.Code)
	}
}

func TestMeHandler(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeCredentials{}, time.Second)

	r := gin.New()
	r.GET("/me", func(ctx *gin.Context) {
		ctx.Set(middlewares.CtxIdentity, user.Identity{UserID: 3, Email: "c@x.com"})
	}, h.Me)
	r.GET("/anon", h.Me)

	w := doJSON(r, http.MethodGet, "/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	var who user.Identity
	if err := json.Unmarshal(w.Body.Bytes(), &who); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if who != (user.Identity{UserID: 3, Email: "c@x.com"}) {
		t.Fatalf("unexpected identity: %+v", who)
	}

	w = doJSON(r, http.MethodGet, "/anon", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing identity got %d, want 401", w.Code)
	}
}
