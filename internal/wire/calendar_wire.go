package wire

import (
	"room-reservation/internal/adaptor"
	"room-reservation/internal/data/repository"
	"room-reservation/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCalendar(
	r chi.Router,
	calendarHandler *adaptor.CalendarHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/calendar", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(repo.Session, repo.User, log))

		// GET /api/calendar?room_id=R is open to guests; user_id and admin-requests
		// are checked by the service.
		r.Get("/", calendarHandler.Get)

		// ==================== AUTHENTICATED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth())

			r.Post("/", calendarHandler.Create)
			// accept / reject are admin-only; owners may shorten their own series
			r.Put("/", calendarHandler.Update)
			// block / unblock (admin)
			r.Patch("/", calendarHandler.Patch)
			r.Delete("/", calendarHandler.Delete)
		})
	})
}
