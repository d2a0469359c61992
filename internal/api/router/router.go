package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/glowdesk/platform/internal/auth"
	"github.com/glowdesk/platform/internal/bookings"
	httpmiddleware "github.com/glowdesk/platform/internal/http/middleware"
	"github.com/glowdesk/platform/internal/http/respond"
	"github.com/glowdesk/platform/internal/salons"
	"github.com/glowdesk/platform/internal/services"
	"github.com/glowdesk/platform/internal/slots"
	"github.com/glowdesk/platform/internal/users"
	"github.com/glowdesk/platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	TokenParser     httpmiddleware.TokenParser
	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	SalonsHandler   *salons.Handler
	ServicesHandler *services.Handler
	SlotsHandler    *slots.Handler
	BookingsHandler *bookings.Handler
	MetricsHandler  http.Handler

	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSec > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}

	// Public endpoints: health, metrics, login.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Route("/auth/otp", func(r chi.Router) {
				r.Post("/request", cfg.AuthHandler.RequestOTP)
				r.Post("/verify", cfg.AuthHandler.VerifyOTP)
			})
		}
	})

	// Browsing endpoints: anonymous visitors see approved salons only;
	// staff tokens widen the view where the handler allows it.
	r.Group(func(browse chi.Router) {
		if cfg.TokenParser != nil {
			browse.Use(httpmiddleware.OptionalAuth(cfg.TokenParser))
		}
		if cfg.SalonsHandler != nil {
			browse.Get("/salons", cfg.SalonsHandler.List)
			browse.Get("/salons/{salonID}", cfg.SalonsHandler.Get)
		}
		if cfg.ServicesHandler != nil {
			browse.Get("/salons/{salonID}/services", cfg.ServicesHandler.List)
			browse.Get("/services/{serviceID}", cfg.ServicesHandler.Get)
		}
		if cfg.SlotsHandler != nil {
			browse.Get("/salons/{salonID}/slots", cfg.SlotsHandler.List)
		}
	})

	// Everything else requires a token.
	r.Group(func(private chi.Router) {
		if cfg.TokenParser != nil {
			private.Use(httpmiddleware.RequireAuth(cfg.TokenParser))
		}
		if cfg.UsersHandler != nil {
			private.Get("/users/me", cfg.UsersHandler.Me)
			private.Patch("/users/me", cfg.UsersHandler.UpdateMe)
			private.Put("/admin/users/{userID}/role", cfg.UsersHandler.AssignRole)
		}
		if cfg.SalonsHandler != nil {
			private.Post("/salons", cfg.SalonsHandler.Create)
			private.Patch("/salons/{salonID}/status", cfg.SalonsHandler.UpdateStatus)
			private.Put("/salons/{salonID}/hours", cfg.SalonsHandler.UpdateHours)
			private.Post("/salons/{salonID}/image", cfg.SalonsHandler.UploadImage)
		}
		if cfg.ServicesHandler != nil {
			private.Post("/salons/{salonID}/services", cfg.ServicesHandler.Create)
			private.Patch("/services/{serviceID}", cfg.ServicesHandler.Update)
		}
		if cfg.SlotsHandler != nil {
			private.Post("/salons/{salonID}/slots/generate", cfg.SlotsHandler.Generate)
			private.Post("/salons/{salonID}/slots", cfg.SlotsHandler.Create)
			private.Patch("/slots/{slotID}/capacity", cfg.SlotsHandler.UpdateCapacity)
			private.Delete("/slots/{slotID}", cfg.SlotsHandler.Delete)
		}
		if cfg.BookingsHandler != nil {
			private.Route("/bookings", func(r chi.Router) {
				r.Post("/", cfg.BookingsHandler.Create)
				r.Get("/mine", cfg.BookingsHandler.ListMine)
				r.Get("/checkin/{code}", cfg.BookingsHandler.CheckIn)
				r.Route("/{bookingID}", func(r chi.Router) {
					r.Get("/", cfg.BookingsHandler.Get)
					r.Get("/qr", cfg.BookingsHandler.QRImage)
					r.Post("/cancel", cfg.BookingsHandler.Cancel)
					r.Post("/start", cfg.BookingsHandler.Start)
					r.Post("/complete", cfg.BookingsHandler.Complete)
					r.Post("/reschedule", cfg.BookingsHandler.Reschedule)
				})
			})
			private.Get("/salons/{salonID}/bookings", cfg.BookingsHandler.ListSalonDay)
		}
	})

	return r
}
