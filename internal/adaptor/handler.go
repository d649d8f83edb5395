package adaptor

import (
	"context"
	"errors"
	"net/http"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/usecase"
	"room-reservation/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Calendar *CalendarHandler
	Room     *RoomHandler
}

func NewHandler(service *usecase.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Calendar: NewCalendarHandler(service, logger),
		Room:     NewRoomHandler(service.Room, logger),
	}
}

// actorFrom reads the caller resolved by the session middleware. Requests without a
// session act as guests.
func actorFrom(ctx context.Context) usecase.Actor {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return usecase.Actor{Role: entity.RoleGuest}
	}
	role, _ := utils.GetRoleFromContext(ctx)
	switch entity.UserRole(role) {
	case entity.RoleAdmin, entity.RoleUser:
		return usecase.Actor{UserID: userID, Role: entity.UserRole(role)}
	case entity.RoleGuest:
		return usecase.Actor{Role: entity.RoleGuest}
	default:
		return usecase.Actor{UserID: userID, Role: entity.RoleUser}
	}
}

// conflictDetail is the errors payload of a 409.
type conflictDetail struct {
	Range     string   `json:"range,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Dates     []string `json:"dates,omitempty"`
	Remaining int      `json:"remaining,omitempty"`
}

// handleServiceError maps usecase errors to responses. Anything unclassified is a 500
// whose details stay in the log.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validation *usecase.ValidationError
		past       *usecase.PastDateError
		state      *usecase.StateError
		conflict   *usecase.ConflictError
		notFound   *usecase.NotFoundError
		forbidden  *usecase.ForbiddenError
	)

	switch {
	case errors.As(err, &validation):
		log.Warn(operation+" validation failed",
			zap.Error(err), zap.String("fields", utils.FormatValidationErrors(validation.Fields)))
		utils.ResponseBadRequest(w, validation.Error(), validation.Fields)

	case errors.As(err, &past):
		log.Warn(operation+" rejected - past date", zap.Error(err))
		utils.ResponseBadRequest(w, past.Message, nil)

	case errors.As(err, &state):
		log.Warn(operation+" rejected - invalid state", zap.Error(err))
		utils.ResponseBadRequest(w, state.Message, nil)

	case errors.As(err, &conflict):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, conflict.Message, conflictDetail{
			Range:     conflict.Range,
			Reason:    conflict.Reason,
			Dates:     conflict.Dates,
			Remaining: conflict.Remaining,
		})

	case errors.As(err, &notFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, capitalize(notFound.Error()))

	case errors.As(err, &forbidden):
		log.Warn(operation+" forbidden", zap.Error(err))
		utils.ResponseForbidden(w, forbidden.Message)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
