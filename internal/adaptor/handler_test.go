package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/usecase"
	"room-reservation/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandleServiceError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &usecase.ValidationError{Message: "reason is required", Fields: map[string]string{"reason": "reason is required"}}, http.StatusBadRequest, "reason is required"},
		{"past", &usecase.PastDateError{Message: "Cannot book in the past"}, http.StatusBadRequest, "Cannot book in the past"},
		{"state", &usecase.StateError{Message: "Booking 4 is already confirmed"}, http.StatusBadRequest, "Booking 4 is already confirmed"},
		{"conflict", &usecase.ConflictError{Message: "taken", Range: "14:00-17:00"}, http.StatusConflict, "taken"},
		{"not found", &usecase.NotFoundError{Resource: "booking", ID: 7}, http.StatusNotFound, "Booking 7 not found"},
		{"forbidden", &usecase.ForbiddenError{Message: "Admin access required"}, http.StatusForbidden, "Admin access required"},
		{"wrapped", fmt.Errorf("outer: %w", &usecase.NotFoundError{Resource: "room", ID: 2}), http.StatusNotFound, "Room 2 not found"},
		{"storage", errors.New("dial tcp 10.0.0.5:5432: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, zap.NewNop(), tc.err, "test")

			assert.Equal(t, tc.status, rec.Code)
			var body utils.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Status)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

func TestHandleServiceError_LogsValidationFields(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := httptest.NewRecorder()
	handleServiceError(rec, zap.New(core), &usecase.ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{"start_time": "Must be a time in HH:MM format", "room_id": "This field is required"},
	}, "create booking")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	entries := logs.FilterMessage("create booking validation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "room_id: This field is required; start_time: Must be a time in HH:MM format",
		entries[0].ContextMap()["fields"])
}

func TestHandleServiceError_ConflictDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, zap.NewNop(), &usecase.ConflictError{
		Message:   "Recurring booking conflicts",
		Dates:     []string{"2025-11-17", "2025-11-18"},
		Remaining: 3,
	}, "create booking")

	assert.JSONEq(t, `{
		"status": false,
		"message": "Recurring booking conflicts",
		"errors": {"dates": ["2025-11-17", "2025-11-18"], "remaining": 3}
	}`, rec.Body.String())
}

func TestActorFrom(t *testing.T) {
	assert.Equal(t, usecase.Actor{Role: entity.RoleGuest}, actorFrom(context.Background()))

	ctx := utils.SetUserContext(context.Background(), 9, "admin")
	assert.Equal(t, usecase.Actor{UserID: 9, Role: entity.RoleAdmin}, actorFrom(ctx))

	ctx = utils.SetUserContext(context.Background(), 9, "auditor")
	assert.Equal(t, usecase.Actor{UserID: 9, Role: entity.RoleUser}, actorFrom(ctx))
}
