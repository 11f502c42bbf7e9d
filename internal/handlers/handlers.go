package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"finstress/internal/app"
	"finstress/internal/auth"
	"finstress/internal/chat"
	"finstress/internal/finance"
	"finstress/web"

	log "github.com/sirupsen/logrus"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// TokenContextKey is the context key for the authenticated session token.
	TokenContextKey contextKey = "token"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	tracker      *app.Tracker
	gate         *auth.Gate
	chats        *conversations
	secureCookie bool
	views        map[string]*template.Template
	now          func() time.Time
}

// NewHandlers creates a new Handlers instance. newChat builds the assistant
// conversation for each new session.
func NewHandlers(tracker *app.Tracker, gate *auth.Gate, newChat func() *chat.Conversation, secureCookie bool) *Handlers {
	return &Handlers{
		tracker:      tracker,
		gate:         gate,
		chats:        newConversations(newChat),
		secureCookie: secureCookie,
		views:        parseViews("login.html", "dashboard.html"),
		now:          time.Now,
	}
}

var funcs = template.FuncMap{
	"money": finance.FormatMoney,
}

func parseViews(names ...string) map[string]*template.Template {
	views := make(map[string]*template.Template, len(names))
	for _, name := range names {
		views[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(web.FS, "templates/base.html", "templates/"+name))
	}
	return views
}

// Static serves the embedded assets.
func Static() http.Handler {
	return http.FileServerFS(web.FS)
}

// TokenFromContext retrieves the session token of an authenticated request.
func TokenFromContext(r *http.Request) auth.SessionToken {
	if token, ok := r.Context().Value(TokenContextKey).(auth.SessionToken); ok {
		return token
	}
	return ""
}

func sessionToken(r *http.Request) auth.SessionToken {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return auth.SessionToken(cookie.Value)
}

// AuthMiddleware wraps handlers to require a valid session.
// Sessions past the halfway point of their lifetime are renewed by the gate;
// the cookie is refreshed to match.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		renewed, err := h.gate.Check(r.Context(), token)
		if err != nil {
			if token != "" {
				h.chats.drop(token)
				h.clearSessionCookie(w)
			}
			h.redirect(w, r, "/login")
			return
		}
		if renewed {
			h.setSessionCookie(w, token)
		}

		ctx := context.WithValue(r.Context(), TokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Username string
	Error    string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// Already logged in.
	if _, err := h.gate.Check(r.Context(), sessionToken(r)); err == nil {
		h.redirect(w, r, "/dashboard")
		return
	}
	h.render(w, r, http.StatusOK, "login.html", LoginViewModel{})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login.html", LoginViewModel{Error: "Invalid form submission"})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if strings.TrimSpace(username) == "" {
		h.render(w, r, http.StatusBadRequest, "login.html", LoginViewModel{Error: "Username and password are required"})
		return
	}

	token, err := h.gate.Login(r.Context(), username, password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		h.render(w, r, http.StatusBadRequest, "login.html", LoginViewModel{Username: username, Error: "Username and password are required"})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.render(w, r, http.StatusUnauthorized, "login.html", LoginViewModel{Username: username, Error: "Invalid username or password"})
		return
	case err != nil:
		log.WithError(err).Error("Failed to create session")
		h.render(w, r, http.StatusInternalServerError, "login.html", LoginViewModel{Username: username, Error: "An error occurred. Please try again."})
		return
	}

	h.setSessionCookie(w, token)
	h.redirect(w, r, "/dashboard")
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if err := h.gate.Logout(r.Context(), token); err != nil {
		log.WithError(err).Error("Failed to delete session")
	}
	h.chats.drop(token)
	h.clearSessionCookie(w)
	h.redirect(w, r, "/login")
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token auth.SessionToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    string(token),
		Path:     "/",
		MaxAge:   int(auth.SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// redirect sends the browser to path. htmx requests get HX-Location so that
// only the content block is swapped.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMX(r) {
		w.Header().Set("HX-Location", `{"path":"`+path+`", "target":"#content"}`)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, viewName string, data any) {
	tmpl, ok := h.views[viewName]
	if !ok {
		log.WithField("view", viewName).Error("Unknown view")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if isHTMX(r) {
		target = "content"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		log.WithError(err).WithField("view", viewName).Error("Template execution error")
	}
}
