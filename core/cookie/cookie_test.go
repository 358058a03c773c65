package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadgate/core/cookie"
)

const (
	oldSecret = "old-secret-old-secret-old-secret-00"
	newSecret = "new-secret-new-secret-new-secret-00"
)

func replay(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := cookie.New(nil)
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"short"})
	assert.ErrorIs(t, err, cookie.ErrSecretTooShort)

	_, err = cookie.New([]string{"", newSecret})
	assert.NoError(t, err)
}

func TestManager_Signed(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{newSecret})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sid", "token-value"))

		got, err := m.GetSigned(replay(w), "sid")
		require.NoError(t, err)
		assert.Equal(t, "token-value", got)
	})

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sid", "token-value"))

		c := w.Result().Cookies()[0]
		_, sig, _ := strings.Cut(c.Value, "|")
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: "b3RoZXI=|" + sig})

		_, err := m.GetSigned(r, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := m.GetSigned(httptest.NewRequest(http.MethodGet, "/", nil), "sid")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: "nopipe"})
		_, err := m.GetSigned(r, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})
}

func TestManager_SecretRotation(t *testing.T) {
	t.Parallel()

	before, err := cookie.New([]string{oldSecret})
	require.NoError(t, err)
	after, err := cookie.New([]string{newSecret, oldSecret})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, before.SetSigned(w, "sid", "v"))

	got, err := after.GetSigned(replay(w), "sid")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestManager_SizeLimit(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{newSecret})
	require.NoError(t, err)

	err = m.Set(httptest.NewRecorder(), "big", strings.Repeat("x", cookie.MaxCookieSize))
	var tooLarge cookie.ErrCookieTooLarge
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "big", tooLarge.Name)
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{newSecret}, cookie.WithPath("/upload"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	m.Delete(w, "sid")
	c := w.Result().Cookies()[0]
	assert.Equal(t, -1, c.MaxAge)
	assert.Equal(t, "/upload", c.Path)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	cfg := cookie.DefaultConfig()
	cfg.Secrets = " " + newSecret + " , " + oldSecret
	cfg.Secure = true
	m, err := cookie.NewFromConfig(cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.Set(w, "a", "b"))
	assert.True(t, w.Result().Cookies()[0].Secure)
}
