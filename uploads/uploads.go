// Package uploads stores the pictures and PDFs attached to logbook messages
// and team topics.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"fewr/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is where stored files are served.
const URLPrefix = "/uploads/"

var (
	ErrNotAllowed = errors.New("only images or PDF files are allowed")
	ErrTooLarge   = errors.New("file is too large")
	ErrTooMany    = errors.New("too many files")
)

var allowed = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

var extMime = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

var canonicalExt = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

type Store struct {
	dir      string
	maxSize  int64
	maxFiles int
	now      func() time.Time
}

// New creates dir when missing.
func New(dir string, maxSize int64, maxFiles int, now func() time.Time) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	if now == nil {
		now = time.Now
	}
	return &Store{dir: dir, maxSize: maxSize, maxFiles: maxFiles, now: now}, nil
}

// MaxRequestSize bounds a multipart body holding the maximum number of
// files plus the form fields.
func (s *Store) MaxRequestSize() int64 {
	return int64(s.maxFiles)*s.maxSize + 1<<20
}

// SaveAll stores every file or none of them.
func (s *Store) SaveAll(files []*multipart.FileHeader) (model.Attachments, error) {
	if len(files) > s.maxFiles {
		return nil, ErrTooMany
	}
	var saved model.Attachments
	for _, fh := range files {
		a, err := s.Save(fh)
		if err != nil {
			for _, done := range saved {
				os.Remove(filepath.Join(s.dir, strings.TrimPrefix(done.Href, URLPrefix)))
			}
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		saved = append(saved, a)
	}
	return saved, nil
}

// Save checks the file content type and size and writes it under a unique
// name.
func (s *Store) Save(fh *multipart.FileHeader) (model.Attachment, error) {
	if fh.Size > s.maxSize {
		return model.Attachment{}, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to detect content type: %w", err)
	}
	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !allowed[mime] {
		return model.Attachment{}, ErrNotAllowed
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return model.Attachment{}, fmt.Errorf("failed to rewind upload: %w", err)
	}

	name := StoredName(s.now(), uuid.NewString()[:6], withExt(fh.Filename, mime))
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to create %s: %w", name, err)
	}
	n, err := io.Copy(dst, io.LimitReader(f, s.maxSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return model.Attachment{}, err
	}

	return model.Attachment{
		Name: fh.Filename,
		Mime: mime,
		Size: n,
		Href: URLPrefix + name,
	}, nil
}

// withExt keeps the client extension only when it names the detected type,
// otherwise it swaps in the canonical one.
func withExt(original, mime string) string {
	ext := filepath.Ext(original)
	if extMime[strings.ToLower(ext)] == mime {
		return original
	}
	return strings.TrimSuffix(original, ext) + canonicalExt[mime]
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9_\-]+`)
var dashes = regexp.MustCompile(`-+`)

// StoredName builds "<unix ms>-<rand>-<safe base><ext>" from the uploaded
// file name.
func StoredName(now time.Time, rand, original string) string {
	var base, ext string
	if original != "" {
		ext = strings.ToLower(filepath.Ext(original))
		base = strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	}
	base = strings.ToLower(base)
	base = unsafeChars.ReplaceAllString(base, "-")
	base = dashes.ReplaceAllString(base, "-")
	if base == "" {
		base = "file"
	}
	if len(base) > 60 {
		base = base[:60]
	}
	return fmt.Sprintf("%d-%s-%s%s", now.UnixMilli(), rand, base, ext)
}

// MimeFromExt guesses the content type of a stored href.
func MimeFromExt(href string) string {
	if m, ok := extMime[strings.ToLower(filepath.Ext(href))]; ok {
		return m
	}
	return "application/octet-stream"
}

// Normalize fills missing names and content types of attachments copied
// from older records, and drops entries without href.
func Normalize(in model.Attachments) model.Attachments {
	out := make(model.Attachments, 0, len(in))
	for _, a := range in {
		if a.Href == "" {
			continue
		}
		if a.Mime == "" {
			a.Mime = MimeFromExt(a.Href)
		}
		if a.Name == "" {
			a.Name = filepath.Base(a.Href)
		}
		out = append(out, a)
	}
	return out
}

// Handler serves the stored files under URLPrefix.
func (s *Store) Handler() http.Handler {
	files := http.StripPrefix(URLPrefix, http.FileServer(http.Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
