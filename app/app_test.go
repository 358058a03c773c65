package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dmitrymomot/uploadgate/app"
	"github.com/dmitrymomot/uploadgate/core/cookie"
	"github.com/dmitrymomot/uploadgate/core/server"
	"github.com/dmitrymomot/uploadgate/core/session"
	"github.com/dmitrymomot/uploadgate/core/sessiontransport"
	"github.com/dmitrymomot/uploadgate/upload"
	"github.com/dmitrymomot/uploadgate/upload/configstore"
)

const secret = "0123456789abcdef0123456789abcdef-test"

func testConfig(t *testing.T) app.Config {
	t.Helper()

	cookies := cookie.DefaultConfig()
	cookies.Secrets = secret

	uploads := upload.DefaultConfig()
	uploads.StorageRoot = t.TempDir()

	return app.Config{
		Server:           server.DefaultConfig(),
		Cookie:           cookies,
		Session:          session.DefaultConfig(),
		SessionCookie:    sessiontransport.DefaultCookieConfig(),
		Upload:           uploads,
		Janitor:          upload.DefaultJanitorConfig(),
		AppName:          "uploadgate-test",
		Env:              "test",
		LogLevel:         "error",
		MetricsNamespace: "uploadgate",
	}
}

func newApp(t *testing.T, cfg app.Config, opts ...app.Option) *app.App {
	t.Helper()

	opts = append([]app.Option{app.WithConfigSource(configstore.NewMemory(
		upload.ConfigRecord{UID: 1, UploadPath: "inbox", Extensions: "txt", SaveSession: true},
	))}, opts...)
	a, err := app.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestApp_ChunkedUploadKeepsProgressInCookieSession(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	h := newApp(t, cfg).Handler()

	var cookies []*http.Cookie
	for i, part := range []string{"first,", "second"} {
		req := httptest.NewRequest(http.MethodPost,
			app.UploadPath+"?configUid=1&name=log.txt&chunks=2&chunk="+strconv.Itoa(i),
			strings.NewReader(part))
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"jsonrpc":"2.0","result":null,"id":"id"}`, w.Body.String(), "chunk %d", i)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		if i == 0 {
			cookies = w.Result().Cookies()
			require.NotEmpty(t, cookies)
		}
	}

	got, err := os.ReadFile(filepath.Join(cfg.Upload.StorageRoot, "inbox", "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first,second", string(got))
}

func TestApp_SecondChunkWithoutCookieIsOutOfOrder(t *testing.T) {
	t.Parallel()

	h := newApp(t, testConfig(t)).Handler()

	req := httptest.NewRequest(http.MethodPost, app.UploadPath+"?configUid=1&name=log.txt&chunks=2&chunk=1", strings.NewReader("x"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":100,"message":"Chunk received out of order."},"id":""}`, w.Body.String())
}

func TestApp_BodyLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Upload.MaxRequestSize = 8
	h := newApp(t, cfg).Handler()

	req := httptest.NewRequest(http.MethodPut, app.UploadPath+"?configUid=1&name=big.txt", strings.NewReader(strings.Repeat("x", 64)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":103,"message":"Failed to move uploaded file."},"id":""}`, w.Body.String())
	assert.NoFileExists(t, filepath.Join(cfg.Upload.StorageRoot, "inbox", "big.txt"))
}

func TestApp_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	h := newApp(t, testConfig(t)).Handler()

	serve := func(method, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(method, target, strings.NewReader("hi")))
		return w
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/health/live").Code)

	ready := serve(http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.JSONEq(t, `{"status":"ready"}`, ready.Body.String())

	serve(http.MethodPut, app.UploadPath+"?configUid=1&name=hi.txt")
	serve(http.MethodPut, app.UploadPath+"?configUid=1&name=hi.exe")

	metrics := serve(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	body := metrics.Body.String()
	assert.Contains(t, body, `uploadgate_upload_requests_total{outcome="completed"} 1`)
	assert.Contains(t, body, `uploadgate_upload_failures_total{kind="extension"} 1`)
	assert.Contains(t, body, "uploadgate_http_requests_total")
}

func TestApp_UnknownRouteUsesJSONErrors(t *testing.T) {
	t.Parallel()

	h := newApp(t, testConfig(t)).Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"not_found"`)
}

func TestApp_Sweep(t *testing.T) {
	t.Parallel()

	a := newApp(t, testConfig(t))
	report, err := a.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Parts)
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing cookie secret", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		cfg.Cookie.Secrets = ""
		_, err := app.New(context.Background(), cfg, app.WithConfigSource(configstore.NewMemory()))
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("missing storage root", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		cfg.Upload.StorageRoot = filepath.Join(t.TempDir(), "absent")
		_, err := app.New(context.Background(), cfg, app.WithConfigSource(configstore.NewMemory()))
		assert.Error(t, err)
	})

	t.Run("nil option values", func(t *testing.T) {
		t.Parallel()

		_, err := app.New(context.Background(), testConfig(t), app.WithLogger(nil))
		assert.Error(t, err)
		_, err = app.New(context.Background(), testConfig(t), app.WithConfigSource(nil))
		assert.ErrorIs(t, err, upload.ErrNilConfigSource)
		_, err = app.New(context.Background(), testConfig(t), app.WithUsers(nil))
		assert.Error(t, err)
		_, err = app.New(context.Background(), testConfig(t), app.WithTracerProvider(nil))
		assert.Error(t, err)
	})
}

func TestApp_LoginBindsUserToUploads(t *testing.T) {
	t.Parallel()

	hash, err := configstore.HashPassword("s3cret")
	require.NoError(t, err)

	store := configstore.NewMemory(upload.ConfigRecord{
		UID:               2,
		UploadPath:        "users",
		Extensions:        "txt",
		SessionRequired:   true,
		SubdirectoryField: "username",
	})
	store.PutUser(configstore.UserEntry{
		ID:           uuid.New(),
		UserRecord:   upload.UserRecord{UID: 12, Username: "alice"},
		PasswordHash: hash,
	})

	cfg := testConfig(t)
	h := newApp(t, cfg, app.WithConfigSource(store), app.WithUsers(store)).Handler()

	send := func(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}
	uploadReq := func(name string) *http.Request {
		return httptest.NewRequest(http.MethodPut, app.UploadPath+"?configUid=2&name="+name, strings.NewReader("data"))
	}
	loginReq := func(password string) *http.Request {
		form := url.Values{"username": {"alice"}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, app.LoginPath, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}
	expired := `{"jsonrpc":"2.0","error":{"code":100,"message":"User session expired."},"id":""}`

	assert.JSONEq(t, expired, send(uploadReq("a.txt"), nil).Body.String())

	bad := send(loginReq("wrong"), nil)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	login := send(loginReq("s3cret"), nil)
	require.Equal(t, http.StatusOK, login.Code)
	assert.JSONEq(t, `{"authenticated":true,"username":"alice"}`, login.Body.String())
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	w := send(uploadReq("a.txt"), cookies)
	require.JSONEq(t, `{"jsonrpc":"2.0","result":null,"id":"id"}`, w.Body.String())
	got, err := os.ReadFile(filepath.Join(cfg.Upload.StorageRoot, "users", "alice", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	logout := send(httptest.NewRequest(http.MethodPost, app.LogoutPath, nil), cookies)
	assert.Equal(t, http.StatusNoContent, logout.Code)
	require.NotEmpty(t, logout.Result().Cookies())
	assert.Equal(t, -1, logout.Result().Cookies()[0].MaxAge)

	assert.JSONEq(t, expired, send(uploadReq("b.txt"), cookies).Body.String())
	assert.Equal(t, http.StatusUnauthorized, send(httptest.NewRequest(http.MethodPost, app.LogoutPath, nil), nil).Code)
}

func TestApp_LoginDisabledWithoutUsers(t *testing.T) {
	t.Parallel()

	h := newApp(t, testConfig(t)).Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, app.LoginPath, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type countingTracer struct {
	noop.Tracer
	spans *atomic.Int64
}

func (c countingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	c.spans.Add(1)
	return c.Tracer.Start(ctx, name, opts...)
}

type countingProvider struct {
	noop.TracerProvider
	names []string
	spans atomic.Int64
}

func (p *countingProvider) Tracer(name string, _ ...trace.TracerOption) trace.Tracer {
	p.names = append(p.names, name)
	return countingTracer{spans: &p.spans}
}

func TestApp_TracerProvider(t *testing.T) {
	t.Parallel()

	tp := &countingProvider{}
	h := newApp(t, testConfig(t), app.WithTracerProvider(tp)).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPut, app.UploadPath+"?configUid=1&name=t.txt", strings.NewReader("x")))
	require.JSONEq(t, `{"jsonrpc":"2.0","result":null,"id":"id"}`, w.Body.String())

	assert.Equal(t, []string{upload.TracerName}, tp.names)
	assert.Equal(t, int64(1), tp.spans.Load())
}
