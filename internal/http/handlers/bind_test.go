package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/predict"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter(newReq func() interface{}) *gin.Engine {
	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		req := newReq()
		if !handlers.BindJSON(ctx, req) {
			return
		}
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func postBind(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, bindErrorResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	if w.Code == http.StatusBadRequest {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
		}
	}

	return w, resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter(func() interface{} { return &predict.Input{} })

	w, resp := postBind(t, r, `{"age":-1,"weight":70}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"age":        "gt",
		"height":     "required",
		"income_lpa": "required",
		"smoker":     "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}

	if _, ok := found["weight"]; ok {
		t.Fatalf("weight was valid and should not be reported")
	}
}

func TestBindJSON_Credentials(t *testing.T) {
	r := bindRouter(func() interface{} { return &user.CredentialsRequest{} })

	cases := []struct {
		name      string
		body      string
		wantField string
		wantRule  string
	}{
		{name: "missing password", body: `{"email":"a@x.com"}`, wantField: "password", wantRule: "required"},
		{name: "bad email", body: `{"email":"nope","password":"pw"}`, wantField: "email", wantRule: "email"},
		{name: "missing email", body: `{"password":"pw"}`, wantField: "email", wantRule: "required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := postBind(t, r, tc.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
			}

			if len(resp.Error.Details.Fields) != 1 {
				t.Fatalf("expected one field error, got %+v", resp.Error.Details.Fields)
			}

			got := resp.Error.Details.Fields[0]
			if got.Field != tc.wantField || got.Rule != tc.wantRule {
				t.Fatalf("got %s/%s want %s/%s", got.Field, got.Rule, tc.wantField, tc.wantRule)
			}
		})
	}

	w, _ := postBind(t, r, `{"email":"a@x.com","password":"pw"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("valid body got status %d", w.Code)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter(func() interface{} { return &predict.Input{} })

	body := `{"age":30,"weight":70,"height":1.75,"income_lpa":"ten","smoker":false}`

	w, resp := postBind(t, r, body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("unexpected json detail: %q", resp.Error.Details.JSON)
	}

	if resp.Error.Details.Field != "income_lpa" {
		t.Fatalf("unexpected field detail: got %q want %q", resp.Error.Details.Field, "income_lpa")
	}

	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %d", len(resp.Error.Details.Fields))
	}

	if resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("unexpected rule: %q", resp.Error.Details.Fields[0].Rule)
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	r := bindRouter(func() interface{} { return &user.CredentialsRequest{} })

	for _, body := range []string{`{"email":`, ``} {
		w, resp := postBind(t, r, body)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: got status %d, want 400", body, w.Code)
		}

		if resp.Error.Details.JSON != "invalid_json_syntax" {
			t.Fatalf("body %q: unexpected json detail %q", body, resp.Error.Details.JSON)
		}
	}
}

func TestBindID(t *testing.T) {
	r := gin.New()
	r.GET("/users/:id", func(ctx *gin.Context) {
		id, ok := handlers.BindID(ctx)
		if !ok {
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, want := range map[string]int{
		"/users/7":   http.StatusOK,
		"/users/0":   http.StatusBadRequest,
		"/users/-3":  http.StatusBadRequest,
		"/users/abc": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != want {
			t.Fatalf("%s: got %d want %d", path, w.Code, want)
		}
	}
}

func TestBindJSON_BodyTooLarge(t *testing.T) {
	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, 16)

		var req user.CredentialsRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusNoContent)
	})

	w, _ := postBind(t, r, `{"email":"someone@example.com","password":"long enough to overflow"}`)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want 413, body=%s", w.Code, w.Body.String())
	}
}
