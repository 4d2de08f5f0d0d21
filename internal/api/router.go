// Package api provides HTTP routing for the REST API.
package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/social-apps/backend/internal/api/handlers"
	"github.com/social-apps/backend/internal/api/middleware"
	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/calendar"
	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/search"
	"github.com/social-apps/backend/internal/users"
	"github.com/social-apps/backend/internal/websocket"
)

// Services are the collaborators the routes dispatch to.
type Services struct {
	DB         handlers.Pinger
	Redis      handlers.Pinger // nil when the Redis stream sink is disabled
	Hub        *websocket.Hub
	Scheduler  handlers.NextRunner
	Calendar   *calendar.Controller
	Users      *users.Service
	Search     *search.Service
	Dispatcher *fields.Dispatcher
	Tokens     *auth.TokenManager
	OAuth      *auth.OAuthProvider // nil disables external login
	Translator render.Translator
	Logger     logger.Logger
}

// Options tune the HTTP surface.
type Options struct {
	CookieName     string
	SecureCookies  bool
	AllowedOrigins []string
	// CSRF is nil to disable token checks.
	CSRF      *middleware.CSRFOptions
	StaticDir string
}

// NewRouter creates the HTTP handler with all API routes.
func NewRouter(s Services, opts Options) http.Handler {
	lggr := s.Logger.Named("http")
	rj := handlers.NewRejecter(s.Translator, lggr)
	session := &handlers.Session{
		Tokens:     s.Tokens,
		CookieName: opts.CookieName,
		Secure:     opts.SecureCookies,
	}
	login := func(h http.HandlerFunc) http.Handler {
		return auth.RequireLogin(rj.Unauthorized)(h)
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	if opts.CSRF != nil {
		api.Use(middleware.CSRF(*opts.CSRF, lggr))
	}
	api.Use(auth.Authenticate(s.Tokens, opts.CookieName, lggr))

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(s.DB, s.Redis)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(s.Hub, s.Scheduler)).Methods("GET")
	api.HandleFunc("/csrf", handlers.CSRFToken()).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub, handlers.NewUpgrader(opts.AllowedOrigins), lggr)).Methods("GET")

	// Auth endpoints
	api.HandleFunc("/auth/login", handlers.Login(s.Users, session, rj)).Methods("POST")
	api.HandleFunc("/auth/oauth/permissions", handlers.OAuthPermissions(s.Dispatcher)).Methods("GET")
	if s.OAuth != nil {
		api.HandleFunc("/auth/oauth/login", handlers.OAuthLogin(s.OAuth, rj)).Methods("GET")
		api.HandleFunc("/auth/oauth/callback", handlers.OAuthCallback(s.OAuth, s.Users, session, s.Translator, lggr)).Methods("GET")
	}

	// User endpoints
	api.HandleFunc("/users/register/form", handlers.RegisterForm(s.Users, rj)).Methods("GET")
	api.HandleFunc("/users/register", handlers.Register(s.Users, session, rj)).Methods("POST")
	api.HandleFunc("/users/check-username", handlers.CheckUsername(s.Users, s.Translator, rj)).Methods("GET")
	api.Handle("/users/me/edit", login(handlers.EditProfileForm(s.Users, rj))).Methods("GET")
	api.Handle("/users/me", login(handlers.UpdateProfile(s.Users, rj))).Methods("PUT")
	api.Handle("/users/me/privacy", login(handlers.UpdatePrivacy(s.Users, rj))).Methods("PUT")
	api.HandleFunc("/users/{id:[0-9]+}/profile", handlers.GetProfile(s.Users, rj)).Methods("GET")

	// Search
	api.HandleFunc("/search", handlers.Search(s.Search, rj)).Methods("GET")

	// Calendar app
	cal := api.PathPrefix("/apps/calendar").Subrouter()
	if opts.CSRF != nil {
		cal.Use(middleware.RequireCSRF(*opts.CSRF, lggr))
	}
	cal.Handle("/form", login(handlers.CalendarForm(s.Calendar, rj))).Methods("GET")
	cal.Handle("/store", login(handlers.StoreCalendarEntry(s.Calendar, rj))).Methods("POST")
	cal.Handle("/delete", login(handlers.DeleteCalendarEntry(s.Calendar, rj))).Methods("POST")
	cal.Handle("/confirm-delete", login(handlers.ConfirmDeleteCalendarEntry(s.Calendar, rj))).Methods("GET")
	cal.Handle("/view", login(handlers.ViewCalendarEntry(s.Calendar, rj))).Methods("GET")
	cal.Handle("/entries", login(handlers.ListCalendarEntries(s.Calendar, rj))).Methods("GET")
	cal.Handle("/export.ics", login(handlers.ExportCalendar(s.Calendar, rj))).Methods("GET")

	// Serve static frontend files
	if opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir)))
	}

	var h http.Handler = r
	h = cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CSRFHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(h)
	h = middleware.ErrorRecovery(lggr, s.Translator.T("common.server_error"))(h)
	h = middleware.Logging(lggr)(h)
	return h
}
