package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/cache"
	apphttp "github.com/geocoder89/authhub/internal/http"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/geocoder89/authhub/internal/predict"
	"github.com/geocoder89/authhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key"

const testModel = `{
	"type": "softmax_linear",
	"classes": ["Low", "Medium", "High"],
	"intercept": [1.0, 0.0, -1.0],
	"categorical": {"lifestyle_risk": {"high": [-3.0, 0.0, 3.0]}}
}`

type testApp struct {
	router http.Handler
	prom   *observability.Prom
	tokens *auth.Manager
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestApp(t *testing.T, store auth.UserStore, modelDirs []string) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := quietLogger()
	prom := observability.NewProm(prometheus.NewRegistry())

	hasher := security.NewHasher(bcrypt.MinCost)
	tokens := auth.NewManager(testSecret, time.Hour)
	svc := auth.NewService(store, hasher, tokens, log).WithObserver(prom)

	predictor := predict.NewService(cache.NewMemory(time.Minute), time.Minute, log).WithObserver(prom)
	predictor.Init(modelDirs)

	router := apphttp.NewRouter(log, apphttp.Deps{
		Env:            "test",
		ServiceName:    "authhub-test",
		CORSOrigins:    []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 20,
		RequestTimeout: 2 * time.Second,
		Auth:           svc,
		Users:          auth.NewUsers(store, hasher, svc),
		Predictor:      predictor,
		Prom:           prom,
		Checks:         map[string]handlers.Check{},
	})

	return testApp{router: router, prom: prom, tokens: tokens}
}

func writeModel(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "premium.model"), []byte(testModel), 0o600); err != nil {
		t.Fatalf("write model: %v", err)
	}

	return dir
}

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
}

type errorResponse struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}
