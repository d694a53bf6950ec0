// Package testenv builds a complete app.Env on a temporary SQLite file for
// handler and query tests.
package testenv

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fewr/app"
	"fewr/catalog"
	"fewr/config"
	"fewr/database"
	"fewr/loader"
	"fewr/metrics"
	"fewr/model"
	"fewr/render"
	"fewr/uploads"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Loc is the plant zone used by every test environment.
var Loc = time.FixedZone("CET", 3600)

// Start is the initial reading of the test clock: Thursday 27/11/2025 14:00.
var Start = time.Date(2025, 11, 27, 14, 0, 0, 0, Loc)

// PIN is the catalog PIN of every seeded operator.
const PIN = "3009"

type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// New returns an environment with the schema applied and the embedded
// catalog seeded.
func New(t *testing.T) (*app.Env, *Clock) {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cat, err := catalog.Load("")
	require.NoError(t, err)
	require.NoError(t, loader.InitDatabase(db, cat, zap.NewNop(), bcrypt.MinCost))

	cfg := config.Default()
	cfg.Uploads.Dir = filepath.Join(dir, "uploads")

	clock := &Clock{t: Start}
	views, err := render.New(Loc)
	require.NoError(t, err)
	up, err := uploads.New(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize, cfg.Uploads.MaxFiles, clock.Now)
	require.NoError(t, err)

	env := &app.Env{
		DB:         db,
		Log:        zap.NewNop(),
		Cfg:        cfg,
		Catalog:    catalog.NewStore(cat),
		Views:      views,
		Metrics:    metrics.New(),
		Uploads:    up,
		Loc:        Loc,
		Now:        clock.Now,
		BcryptCost: bcrypt.MinCost,
	}
	return env, clock
}

// AsUser attaches a session of the operator to the request.
func AsUser(r *http.Request, code string) *http.Request {
	if code == "" {
		return r
	}
	s := &model.Session{ID: "session-" + code, UserCode: code}
	u := &model.User{Code: code, Name: code}
	return r.WithContext(app.WithSession(r.Context(), s, u))
}

// Get builds a GET request for the operator.
func Get(target, user string) *http.Request {
	return AsUser(httptest.NewRequest(http.MethodGet, target, nil), user)
}

// PostForm builds a url-encoded POST for the operator.
func PostForm(target string, form url.Values, user string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return AsUser(r, user)
}

// File is one part of a multipart upload.
type File struct {
	Field string
	Name  string
	Data  []byte
}

// PostMultipart builds a multipart POST with fields and files.
func PostMultipart(t *testing.T, target string, form url.Values, files []File, user string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.Field, f.Name)
		require.NoError(t, err)
		_, err = io.Copy(fw, bytes.NewReader(f.Data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, target, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return AsUser(r, user)
}

// Serve runs h and returns the recorded response.
func Serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// Location returns the redirect target of a response.
func Location(rec *httptest.ResponseRecorder) string {
	return rec.Header().Get("Location")
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// PNG is a minimal PNG header, enough for content sniffing.
var PNG = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
