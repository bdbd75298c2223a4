package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"visa-status-service/internal/common/config"
	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/ingest"
	"visa-status-service/internal/models"
	"visa-status-service/internal/notify"
	"visa-status-service/internal/ratelimit"
	"visa-status-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	err   error
	calls int
}

func (m *mockMailer) Send(ctx context.Context, msg notify.Message) error {
	m.calls++
	return m.err
}

func (m *mockMailer) Provider() string { return "mock" }

type testEnv struct {
	router *gin.Engine
	mailer *mockMailer
}

func newTestEnv(t *testing.T, quotas ratelimit.Quotas) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "decisions.csv")
	content := "Week,Block,Application Number,Decision\n" +
		"1,A,IRL123456,Approved\n" +
		"1,A,IRL789012,Refused\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	log := logger.NewTestLogger(t)
	in := ingest.NewIngester(config.IngestionConfig{HeaderSentinel: "Application Number"}, log)
	store := ingest.NewStore()
	require.NoError(t, store.Reload(in, path))

	mailer := &mockMailer{}
	dispatcher := notify.NewDispatcher(mailer, "noreply@example.com", log)
	limiter := ratelimit.NewMemoryLimiter(quotas)
	status := service.NewStatusService(store, limiter, dispatcher, nil, log)

	return &testEnv{
		router: InitRoutes(NewHandler(status, dispatcher, limiter, store, log)),
		mailer: mailer,
	}
}

func defaultQuotas() ratelimit.Quotas {
	return ratelimit.Quotas{
		ratelimit.EndpointCheckStatus: {Requests: 100, Window: 60000},
		ratelimit.EndpointSendEmail:   {Requests: 100, Window: 60000},
	}
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "1.2.3.4:51234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "1.2.3.4:51234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func statusForm() url.Values {
	return url.Values{
		"application_number": {"IRL123456"},
		"application_date":   {"2023-03-01"},
		"email":              {"applicant@example.com"},
	}
}

func TestCheckStatus_OK(t *testing.T) {
	env := newTestEnv(t, defaultQuotas())

	w := postForm(env.router, "/check_status", statusForm())
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Approved", resp.Status)
	assert.True(t, resp.EmailSent)
	assert.GreaterOrEqual(t, resp.WorkingDays, 1)
	assert.Equal(t, 1, env.mailer.calls)
}

func TestCheckStatus_LegacyFieldName(t *testing.T) {
	env := newTestEnv(t, defaultQuotas())

	form := statusForm()
	form.Del("application_number")
	form.Set("irl_number", "IRL123456")

	w := postForm(env.router, "/check_status", form)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Approved", resp.Status)
}

func TestCheckStatus_MissingFieldIs400(t *testing.T) {
	env := newTestEnv(t, defaultQuotas())

	form := statusForm()
	form.Del("email")

	w := postForm(env.router, "/check_status", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email")
	assert.Equal(t, 0, env.mailer.calls, "validation failure must not reach the mailer")
}

func TestCheckStatus_TransportFailureStillResolves(t *testing.T) {
	env := newTestEnv(t, defaultQuotas())
	env.mailer.err = errors.New("connection refused")

	w := postForm(env.router, "/check_status", statusForm())
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Approved", resp.Status)
	assert.False(t, resp.EmailSent)
	assert.NotEmpty(t, resp.EmailError)
}

func TestCheckStatus_RateLimited(t *testing.T) {
	quotas := defaultQuotas()
	quotas[ratelimit.EndpointCheckStatus] = config.Quota{Requests: 2, Window: 60000}
	env := newTestEnv(t, quotas)

	for i := 0; i < 2; i++ {
		w := postForm(env.router, "/check_status", statusForm())
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postForm(env.router, "/check_status", statusForm())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 2, env.mailer.calls, "rejected requests must not dispatch")
}

func TestSendEmail_OK(t *testing.T) {
	env := newTestEnv(t, defaultQuotas())

	w := postJSON(env.router, "/send_email", models.SendEmailRequest{
		Recipient: "someone@example.com",
		Subject:   "hello",
		Body:      "world",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SendEmailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, env.mailer.calls)
}

func TestSendEmail_SchemaValidation(t *testing.T) {
	env := newTestEnv(t, defaultQuotas())

	w := postJSON(env.router, "/send_email", map[string]interface{}{
		"recipient": "someone@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.mailer.calls)
}

func TestSendEmail_RateLimited(t *testing.T) {
	quotas := defaultQuotas()
	quotas[ratelimit.EndpointSendEmail] = config.Quota{Requests: 1, Window: 60000}
	env := newTestEnv(t, quotas)

	body := models.SendEmailRequest{Recipient: "someone@example.com", Subject: "s", Body: "b"}

	w := postJSON(env.router, "/send_email", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(env.router, "/send_email", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, env.mailer.calls)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, defaultQuotas())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"records\":2")
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, defaultQuotas())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
