package wire

import (
	"room-reservation/internal/adaptor"
	"room-reservation/internal/data/repository"
	"room-reservation/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireRoom(
	r chi.Router,
	roomHandler *adaptor.RoomHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Group(func(r chi.Router) {
		// Admins see hidden rooms too.
		r.Use(middleware.OptionalAuth(repo.Session, repo.User, log))

		r.Get("/api/rooms", roomHandler.GetRooms)
		r.Get("/api/rooms/{id}", roomHandler.GetRoomByID)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/rooms", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/", roomHandler.CreateRoom)
		r.Delete("/{id}", roomHandler.DeleteRoom)
	})
}
