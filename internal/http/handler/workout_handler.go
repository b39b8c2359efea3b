package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/http/response"
	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/service"
)

type WorkoutHandler struct {
	svc service.WorkoutService
}

func NewWorkoutHandler(svc service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{svc: svc}
}

// total_hp_earned is derived server-side and ignored on input.
type workoutRequest struct {
	User *struct {
		ID *uint `json:"id"`
	} `json:"user"`
	Description     string     `json:"description"`
	WorkoutType     string     `json:"workout_type"`
	DurationMinutes int        `json:"duration_minutes"`
	PerformedAt     *time.Time `json:"performed_at"`
}

func (b workoutRequest) input() service.WorkoutInput {
	in := service.WorkoutInput{
		Description:     b.Description,
		WorkoutType:     b.WorkoutType,
		DurationMinutes: b.DurationMinutes,
		PerformedAt:     b.PerformedAt,
	}
	if b.User != nil {
		in.UserID = b.User.ID
	}
	return in
}

func (h *WorkoutHandler) List(w http.ResponseWriter, r *http.Request) {
	workouts, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list workouts")
		return
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	response.JSON(w, r, http.StatusOK, workouts)
}

func (h *WorkoutHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid workout id", nil)
		return
	}
	workout, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "load workout")
		return
	}
	response.JSON(w, r, http.StatusOK, workout)
}

func (h *WorkoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body workoutRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	created, err := h.svc.Create(r.Context(), body.input())
	if err != nil {
		writeServiceError(w, r, err, "create workout")
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "workout.create",
		ActorUserID: actorID(r),
		TargetType:  "workout",
		TargetID:    formatID(created.ID),
		Action:      "create",
		Outcome:     "success",
		Reason:      "workout_logged",
	}, "user_id", created.UserID, "total_hp_earned", created.TotalHPEarned)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *WorkoutHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid workout id", nil)
		return
	}
	var body workoutRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	updated, err := h.svc.Update(r.Context(), id, body.input())
	if err != nil {
		writeServiceError(w, r, err, "update workout")
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "workout.update",
		ActorUserID: actorID(r),
		TargetType:  "workout",
		TargetID:    formatID(id),
		Action:      "update",
		Outcome:     "success",
		Reason:      "workout_updated",
	}, "total_hp_earned", updated.TotalHPEarned)
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *WorkoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid workout id", nil)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "delete workout")
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "workout.delete",
		ActorUserID: actorID(r),
		TargetType:  "workout",
		TargetID:    formatID(id),
		Action:      "delete",
		Outcome:     "success",
		Reason:      "workout_deleted",
	})
	response.NoContent(w)
}
