package http

import (
	"net/http"

	"dosetrack/internal/auth"
	"dosetrack/internal/config"
	"dosetrack/internal/extra"
	"dosetrack/internal/http/handler"
	mw "dosetrack/internal/http/middleware"
	"dosetrack/internal/medicine"
	"dosetrack/internal/prescription"
	"dosetrack/internal/schedule"
	"dosetrack/internal/status"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{DB: db}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	prescSvc := &prescription.Service{DB: db}
	schedSvc := &schedule.Service{DB: db}

	ph := &handler.PrescriptionHandler{
		Svc:             prescSvc,
		Sched:           schedSvc,
		MaxScheduleDays: cfg.MaxScheduleDays,
	}
	r.Route("/prescriptions", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", ph.Create)
		r.Get("/{id}", ph.Get)
		r.Patch("/{id}/window", ph.UpdateWindow)
		r.Delete("/{id}", ph.Deactivate)
	})

	sh := &handler.ScheduleHandler{Svc: schedSvc}
	r.Route("/medications", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", sh.Create)
		r.Put("/{id}", sh.Update)
		r.Delete("/{id}", sh.Deactivate)
	})

	lh := &handler.DoseLogHandler{Svc: schedSvc}
	r.Route("/logs", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Patch("/", lh.MarkTaken)
		r.Get("/", lh.DailySheet)
		r.Get("/stats", lh.DailyStats)
		r.Get("/monthly", lh.MonthlyStats)
	})

	mh := &handler.MedicineHandler{Svc: &medicine.Service{DB: db}}
	r.With(auth.RequireAuth(jwtSvc)).Get("/medicines", mh.Search)

	sth := &handler.StatusHandler{Svc: &status.Service{DB: db}}
	r.Route("/daily-status", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", sth.Create)
		r.Get("/", sth.Get)
		r.Patch("/discomforts", sth.AddDiscomforts)
		r.Patch("/info", sth.SetAdditionalInfo)
		r.Delete("/", sth.Delete)
	})

	eh := &handler.ExtraHandler{Svc: &extra.Service{DB: db}}
	r.Route("/additional-meds", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", eh.Create)
		r.Get("/", eh.ListByDate)
	})

	return r
}
