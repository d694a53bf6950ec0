// Package auth logs operators in with their code and PIN and guards every
// other page behind a server-side session.
package auth

import (
	"net/http"
	"strings"
	"time"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/timefmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginPage = "auth/login"
	homePath  = "/logbook/form"
)

type loginForm struct {
	Code string
}

// lookup returns the session behind the request cookie, if still valid.
func lookup(env *app.Env, r *http.Request) (*model.Session, *model.User) {
	c, err := r.Cookie(env.Cfg.Session.CookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	s, u, err := database.GetActiveSession(env.DB, c.Value, env.Now())
	if err != nil {
		env.Log.Warn("session lookup failed", zap.Error(err))
		return nil, nil
	}
	return s, u
}

// RequireAuth redirects to the login page unless the request carries a
// valid session.
func RequireAuth(env *app.Env, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, u := lookup(env, r)
		if s == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(app.WithSession(r.Context(), s, u)))
	})
}

func renderLogin(env *app.Env, w http.ResponseWriter, r *http.Request, status int, errMsg, code string) {
	p := env.Page(r, "LOGIN", loginForm{Code: code})
	p.Bare = true
	p.Error = errMsg
	env.RenderPage(w, r, status, loginPage, p)
}

func LoginPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, _ := lookup(env, r); s != nil {
			app.Redirect(w, r, homePath)
			return
		}
		renderLogin(env, w, r, http.StatusOK, "", "")
	}
}

// LoginHandler checks code and PIN. Failures answer 401 with the form, too
// many attempts for one code answer 429.
func LoginHandler(env *app.Env, limiter *Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(strings.TrimSpace(r.FormValue("code")))
		pin := r.FormValue("password")

		if !limiter.Allow(code) {
			env.Log.Warn("login throttled", zap.String("user", code))
			renderLogin(env, w, r, http.StatusTooManyRequests, "Too many attempts, try again in a minute", code)
			return
		}

		user, err := database.GetUserByCode(env.DB, code)
		if err != nil {
			env.ServerError(w, r, "login lookup failed", err)
			return
		}
		if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(pin)) != nil {
			env.Log.Info("login failed", zap.String("user", code))
			renderLogin(env, w, r, http.StatusUnauthorized, "Invalid credentials", code)
			return
		}

		now := env.Now()
		if _, err := database.DeleteExpiredSessions(env.DB, now); err != nil {
			env.Log.Warn("could not prune sessions", zap.Error(err))
		}
		sess := model.Session{
			ID:        uuid.NewString(),
			UserCode:  user.Code,
			CreatedAt: now,
			ExpiresAt: now.Add(env.Cfg.Session.TTL),
		}
		if err := database.CreateSession(env.DB, sess); err != nil {
			env.ServerError(w, r, "could not create session", err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     env.Cfg.Session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			Expires:  sess.ExpiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		env.Log.Info("login", zap.String("user", user.Code))
		app.Redirect(w, r, homePath)
	}
}

// LogoutHandler stamps the logout time on the operator's latest shift and
// ends the session.
func LogoutHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, u := lookup(env, r); s != nil {
			stamp := timefmt.Stamp(env.Clock())
			if err := database.StampLogout(env.DB, u.Code, stamp); err != nil {
				env.Log.Error("could not stamp logout", zap.String("user", u.Code), zap.Error(err))
			}
			if err := database.DeleteSession(env.DB, s.ID); err != nil {
				env.Log.Error("could not delete session", zap.Error(err))
			}
			env.Log.Info("logout", zap.String("user", u.Code), zap.String("at", stamp))
		}
		http.SetCookie(w, &http.Cookie{
			Name:     env.Cfg.Session.CookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		app.Redirect(w, r, "/login")
	}
}

// HomeHandler serves "/" and every unknown path behind RequireAuth.
func HomeHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			app.Redirect(w, r, homePath)
			return
		}
		env.NotFound(w, r)
	}
}
