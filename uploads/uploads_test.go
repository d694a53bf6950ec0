package uploads

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fewr/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func fileHeaders(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		fw, err := mw.CreateFormFile("attachments", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["attachments"]
}

func fixedNow() time.Time { return time.UnixMilli(1764230400000) }

func TestStoredName(t *testing.T) {
	assert.Equal(t, "1764230400000-a1b2c3-my-photo-2-.png", StoredName(fixedNow(), "a1b2c3", "My Photo (2).PNG"))
	assert.Equal(t, "1764230400000-a1b2c3-file", StoredName(fixedNow(), "a1b2c3", ""))
	long := strings.Repeat("x", 80) + ".pdf"
	assert.Equal(t, "1764230400000-a1b2c3-"+strings.Repeat("x", 60)+".pdf", StoredName(fixedNow(), "a1b2c3", long))
}

func TestSaveAllAcceptsImagesAndPDF(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 1<<20, 10, fixedNow)
	require.NoError(t, err)

	got, err := s.SaveAll(fileHeaders(t, map[string][]byte{
		"pump.png":   pngBytes,
		"manual.pdf": []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"),
	}))
	require.NoError(t, err)
	require.Len(t, got, 2)

	byName := map[string]model.Attachment{}
	for _, a := range got {
		byName[a.Name] = a
	}
	assert.Equal(t, "image/png", byName["pump.png"].Mime)
	assert.Equal(t, "application/pdf", byName["manual.pdf"].Mime)
	for _, a := range got {
		assert.True(t, strings.HasPrefix(a.Href, URLPrefix+"1764230400000-"))
		_, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(a.Href, URLPrefix)))
		assert.NoError(t, err)
	}
}

func TestSaveNamesFileAfterDetectedType(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 1<<20, 10, fixedNow)
	require.NoError(t, err)

	disguised := append(append([]byte{}, pngBytes...), []byte("<script>alert(1)</script>")...)
	got, err := s.SaveAll(fileHeaders(t, map[string][]byte{"evil.html": disguised}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "image/png", got[0].Mime)
	assert.Equal(t, "evil.html", got[0].Name)
	assert.True(t, strings.HasSuffix(got[0].Href, "-evil.png"), got[0].Href)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, got[0].Href, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	got, err = s.SaveAll(fileHeaders(t, map[string][]byte{"scan.JPEG.pdf": []byte("%PDF-1.4\n")}))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got[0].Href, "-scan-jpeg.pdf"), got[0].Href)
}

func TestWithExt(t *testing.T) {
	assert.Equal(t, "photo.JPEG", withExt("photo.JPEG", "image/jpeg"))
	assert.Equal(t, "photo.jpg", withExt("photo.png", "image/jpeg"))
	assert.Equal(t, "noext.pdf", withExt("noext", "application/pdf"))
	assert.Equal(t, "page.gif", withExt("page.svg", "image/gif"))
}

func TestSaveAllRejectsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 1<<20, 10, fixedNow)
	require.NoError(t, err)

	_, err = s.SaveAll(fileHeaders(t, map[string][]byte{"notes.txt": []byte("just text")}))
	assert.ErrorIs(t, err, ErrNotAllowed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveLimits(t *testing.T) {
	s, err := New(t.TempDir(), 16, 1, fixedNow)
	require.NoError(t, err)

	_, err = s.SaveAll(fileHeaders(t, map[string][]byte{"a.png": pngBytes}))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = s.SaveAll(fileHeaders(t, map[string][]byte{"a.png": pngBytes[:8], "b.png": pngBytes[:8]}))
	assert.ErrorIs(t, err, ErrTooMany)
}

func TestNormalize(t *testing.T) {
	got := Normalize(model.Attachments{
		{Href: "/uploads/1-abc-scan.JPG"},
		{Name: "x"},
		{Href: "/uploads/2-abc-data.bin", Name: "data", Mime: ""},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "image/jpeg", got[0].Mime)
	assert.Equal(t, "1-abc-scan.JPG", got[0].Name)
	assert.Equal(t, "application/octet-stream", got[1].Mime)
}

func TestHandlerServesFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 1<<20, 10, fixedNow)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("%PDF-1.4"), 0o644))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/a.pdf", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}
