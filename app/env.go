// Package app holds the dependencies shared by every handler and the
// request helpers built on them.
package app

import (
	"context"
	"net/http"
	"time"

	"fewr/catalog"
	"fewr/config"
	"fewr/database"
	"fewr/labels"
	"fewr/metrics"
	"fewr/model"
	"fewr/render"
	"fewr/uploads"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Env struct {
	DB      *sqlx.DB
	Log     *zap.Logger
	Cfg     *config.Config
	Catalog *catalog.Store
	Views   *render.Views
	Metrics *metrics.Metrics
	Uploads *uploads.Store
	// Labels is nil when labels are printed as HTML only.
	Labels     labels.Printer
	Loc        *time.Location
	Now        func() time.Time
	BcryptCost int
}

// Clock is the current time on the plant's wall clock.
func (e *Env) Clock() time.Time {
	return e.Now().In(e.Loc)
}

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
)

// WithSession stores the logged-in user on the request context.
func WithSession(ctx context.Context, s *model.Session, u *model.User) context.Context {
	ctx = context.WithValue(ctx, sessionKey, s)
	return context.WithValue(ctx, userKey, u)
}

func CurrentUser(r *http.Request) *model.User {
	u, _ := r.Context().Value(userKey).(*model.User)
	return u
}

// UserCode is the operator code of the logged-in user, or "".
func UserCode(r *http.Request) string {
	if u := CurrentUser(r); u != nil {
		return u.Code
	}
	return ""
}

func SessionID(r *http.Request) string {
	if s, _ := r.Context().Value(sessionKey).(*model.Session); s != nil {
		return s.ID
	}
	return ""
}

// Page builds the layout data for the request.
func (e *Env) Page(r *http.Request, title string, data any) render.Page {
	active := render.ActiveDomain(r.URL.Path)
	p := render.Page{
		Title:  title,
		User:   CurrentUser(r),
		Path:   r.URL.Path,
		Active: active,
		Subs:   render.SubsFor(active),
		Flash:  r.URL.Query().Get("msg"),
		Data:   data,
	}
	if p.User != nil {
		state, err := database.GetShiftState(e.DB)
		if err != nil {
			e.Log.Warn("could not load shift state", zap.Error(err))
		}
		p.Shift = state
	}
	return p
}

// Render writes a full page. Template failures become a 500.
func (e *Env) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	e.RenderPage(w, r, status, name, e.Page(r, title, data))
}

// RenderError re-renders a form page with a validation message.
func (e *Env) RenderError(w http.ResponseWriter, r *http.Request, status int, name, title, msg string, data any) {
	p := e.Page(r, title, data)
	p.Error = msg
	e.RenderPage(w, r, status, name, p)
}

func (e *Env) RenderPage(w http.ResponseWriter, r *http.Request, status int, name string, p render.Page) {
	if err := e.Views.Render(w, status, name, p); err != nil {
		e.Log.Error("render failed", zap.String("page", name), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// ServerError logs err and answers 500.
func (e *Env) ServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Log.Error(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("user", UserCode(r)),
		zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// NotFound renders the 404 page inside the layout.
func (e *Env) NotFound(w http.ResponseWriter, r *http.Request) {
	e.Render(w, r, http.StatusNotFound, "errors/notfound", "NOT FOUND", nil)
}
