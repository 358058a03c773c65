package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/router"
)

func text(s string) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		_, err := w.Write([]byte(s))
		return err
	}
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouter_Params(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/files/{name}", func(ctx *router.Context) handler.Response {
		return text("file:" + ctx.Param("name"))
	})

	w := serve(r, http.MethodGet, "/files/photo.png")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "file:photo.png", w.Body.String())
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				order = append(order, name)
				return next(ctx)
			}
		}
	}

	r := router.New[*router.Context](router.WithMiddleware(mw("opt")))
	r.Use(mw("use"))
	r.With(mw("with")).Get("/", func(ctx *router.Context) handler.Response {
		order = append(order, "handler")
		return text("ok")
	})

	serve(r, http.MethodGet, "/")
	assert.Equal(t, []string{"opt", "use", "with", "handler"}, order)
}

func TestRouter_UseAfterRoutesPanics(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/", func(ctx *router.Context) handler.Response { return text("ok") })

	assert.Panics(t, func() {
		r.Use(func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] { return next })
	})
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Post("/upload", func(ctx *router.Context) handler.Response { return text("ok") })

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/missing").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodGet, "/upload").Code)
}

func TestRouter_ErrorHandler(t *testing.T) {
	t.Parallel()

	var captured error
	r := router.New[*router.Context](router.WithErrorHandler(func(ctx *router.Context, err error) {
		captured = err
		ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
	}))

	boom := errors.New("boom")
	r.Get("/err", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error { return boom }
	})
	r.Get("/nil", func(ctx *router.Context) handler.Response { return nil })
	r.Get("/panic", func(ctx *router.Context) handler.Response { panic("kaboom") })

	w := serve(r, http.MethodGet, "/err")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.ErrorIs(t, captured, boom)

	serve(r, http.MethodGet, "/nil")
	assert.ErrorIs(t, captured, router.ErrNilResponse)

	serve(r, http.MethodGet, "/panic")
	var pe router.PanicError
	require.ErrorAs(t, captured, &pe)
	assert.Equal(t, "kaboom", pe.Value())
	assert.NotEmpty(t, pe.Stack())
}

func TestRouter_RouteAndMount(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Route("/api", func(sub router.Router[*router.Context]) {
		sub.Get("/ping", func(ctx *router.Context) handler.Response { return text("pong") })
	})
	r.Mount("/raw", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("raw"))
	}))

	assert.Equal(t, "pong", serve(r, http.MethodGet, "/api/ping").Body.String())
	assert.Equal(t, "raw", serve(r, http.MethodGet, "/raw/").Body.String())

	var patterns []string
	for _, route := range r.Routes() {
		patterns = append(patterns, route.Method+" "+route.Pattern)
	}
	assert.Contains(t, strings.Join(patterns, ","), "GET /api/ping")
}

func TestRouter_MethodValidation(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Method("/upload", func(ctx *router.Context) handler.Response { return text("ok") }, "post", "PUT")

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPut, "/upload").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/upload").Code)
	assert.Panics(t, func() {
		r.Method("/x", func(ctx *router.Context) handler.Response { return text("ok") }, "BREW")
	})
}

func TestContext_SetValueVisibleToRenderer(t *testing.T) {
	t.Parallel()

	type key struct{}
	r := router.New[*router.Context]()
	r.Get("/", func(ctx *router.Context) handler.Response {
		ctx.SetValue(key{}, "v")
		return func(w http.ResponseWriter, req *http.Request) error {
			v, _ := req.Context().Value(key{}).(string)
			_, err := w.Write([]byte(v))
			return err
		}
	})

	assert.Equal(t, "v", serve(r, http.MethodGet, "/").Body.String())
}
