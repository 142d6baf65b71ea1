package http

import (
	"net/http"

	"clinic-booking/internal/delivery/http/handler"
	"clinic-booking/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	bookingHandler      *handler.BookingHandler
	catalogHandler      *handler.CatalogHandler
	authHandler         *handler.AuthHandler
	doctorHandler       *handler.DoctorHandler
	timeSlotHandler     *handler.TimeSlotHandler
	appointmentHandler  *handler.AppointmentHandler
	dashboardHandler    *handler.DashboardHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	adminGuard          *middleware.AdminGuard
	corsMiddleware      *middleware.CORSMiddleware
	loggingMiddleware   *middleware.LoggingMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	metricsHandler      http.Handler
}

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Booking     *handler.BookingHandler
	Catalog     *handler.CatalogHandler
	Auth        *handler.AuthHandler
	Doctor      *handler.DoctorHandler
	TimeSlot    *handler.TimeSlotHandler
	Appointment *handler.AppointmentHandler
	Dashboard   *handler.DashboardHandler
	AuditLog    *handler.AuditLogHandler
}

// Middlewares groups the middleware chain pieces.
type Middlewares struct {
	Auth      *middleware.AuthMiddleware
	Admin     *middleware.AdminGuard
	CORS      *middleware.CORSMiddleware
	Logging   *middleware.LoggingMiddleware
	RateLimit *middleware.RateLimitMiddleware
}

func NewRouter(handlers Handlers, middlewares Middlewares, metricsHandler http.Handler) *Router {
	return &Router{
		router:              mux.NewRouter(),
		bookingHandler:      handlers.Booking,
		catalogHandler:      handlers.Catalog,
		authHandler:         handlers.Auth,
		doctorHandler:       handlers.Doctor,
		timeSlotHandler:     handlers.TimeSlot,
		appointmentHandler:  handlers.Appointment,
		dashboardHandler:    handlers.Dashboard,
		auditLogHandler:     handlers.AuditLog,
		authMiddleware:      middlewares.Auth,
		adminGuard:          middlewares.Admin,
		corsMiddleware:      middlewares.CORS,
		loggingMiddleware:   middlewares.Logging,
		rateLimitMiddleware: middlewares.RateLimit,
		metricsHandler:      metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Catalog (public)
	api.HandleFunc("/doctors", r.catalogHandler.ListDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}", r.catalogHandler.GetDoctor).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}/slots", r.catalogHandler.ListAvailableSlots).Methods(http.MethodGet)

	// Booking (public, rate limited)
	booking := api.PathPrefix("/appointments").Subrouter()
	booking.Use(r.rateLimitMiddleware.Limit)
	booking.HandleFunc("", r.bookingHandler.BookAppointment).Methods(http.MethodPost)

	// Admin login (public, rate limited)
	login := api.PathPrefix("/admin/login").Subrouter()
	login.Use(r.rateLimitMiddleware.Limit)
	login.HandleFunc("", r.authHandler.Login).Methods(http.MethodPost)

	// Admin routes (protected)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(r.adminGuard.RequireAdmin)

	admin.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	admin.HandleFunc("/me", r.authHandler.GetCurrentAdmin).Methods(http.MethodGet)

	// Dashboard and maintenance
	admin.HandleFunc("/dashboard", r.dashboardHandler.GetDashboard).Methods(http.MethodGet)
	admin.HandleFunc("/cache", r.dashboardHandler.GetCacheStats).Methods(http.MethodGet)
	admin.HandleFunc("/cache", r.dashboardHandler.ClearCache).Methods(http.MethodDelete)
	admin.HandleFunc("/reconcile", r.dashboardHandler.Reconcile).Methods(http.MethodPost)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetRecentAuditLogs).Methods(http.MethodGet)

	// Doctor management
	admin.HandleFunc("/doctors", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	admin.HandleFunc("/doctors", r.doctorHandler.CreateDoctor).Methods(http.MethodPost)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.UpdateDoctor).Methods(http.MethodPut)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.DeleteDoctor).Methods(http.MethodDelete)
	admin.HandleFunc("/doctors/{id}/image", r.doctorHandler.UploadProfilePicture).Methods(http.MethodPost)
	admin.HandleFunc("/doctors/{id}/image", r.doctorHandler.DeleteProfilePicture).Methods(http.MethodDelete)

	// Time slot management
	admin.HandleFunc("/slots", r.timeSlotHandler.CreateTimeSlot).Methods(http.MethodPost)
	admin.HandleFunc("/doctors/{doctorId}/slots", r.timeSlotHandler.GetSlotsByDoctor).Methods(http.MethodGet)
	admin.HandleFunc("/slots/{id}/availability", r.timeSlotHandler.SetAvailability).Methods(http.MethodPatch)
	admin.HandleFunc("/slots/{id}", r.timeSlotHandler.DeleteTimeSlot).Methods(http.MethodDelete)

	// Appointment management
	admin.HandleFunc("/appointments", r.appointmentHandler.GetAllAppointments).Methods(http.MethodGet)
	admin.HandleFunc("/appointments/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	admin.HandleFunc("/appointments/{id}/status", r.appointmentHandler.UpdateStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/appointments/{id}", r.appointmentHandler.DeleteAppointment).Methods(http.MethodDelete)

	// Preflight requests only need a matching route for the CORS middleware to answer.
	r.router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.router.Use(r.loggingMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
