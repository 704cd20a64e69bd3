// registration/api/checkin_handler.go
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hackbits/registration-service/registration/service"
	sharedapi "github.com/hackbits/registration-service/shared/api"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// CheckinHandlers exposes the venue admission surface used by kiosk devices
// and the admin console.
type CheckinHandlers struct {
	checkins *service.CheckinService
	log      *logger.Logger
}

// NewCheckinHandlers creates the handler set for check-in routes.
func NewCheckinHandlers(checkins *service.CheckinService, log *logger.Logger) *CheckinHandlers {
	return &CheckinHandlers{checkins: checkins, log: log}
}

// RegisterRoutes mounts the read-only verify route publicly and the
// mutating routes behind admin auth.
func (ch *CheckinHandlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/checkin/verify/{regNum}", ch.VerifyHandler).Methods(http.MethodGet)

	protected.HandleFunc("/admin/checkin", ch.CheckInHandler).Methods(http.MethodPost)
	protected.HandleFunc("/admin/teams/{id}/checkin", ch.UndoCheckInHandler).Methods(http.MethodDelete)
	protected.HandleFunc("/admin/checkin/{regNum}/history", ch.HistoryHandler).Methods(http.MethodGet)
	protected.HandleFunc("/admin/checkin/teams", ch.ListCheckedInHandler).Methods(http.MethodGet)
	protected.HandleFunc("/admin/stats", ch.StatsHandler).Methods(http.MethodGet)
}

type CheckInRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
	Method             string `json:"method"`
}

// CheckInResponse distinguishes a fresh admission from an idempotent
// duplicate for kiosk UIs.
type CheckInResponse struct {
	AlreadyCheckedIn bool         `json:"alreadyCheckedIn"`
	Team             *models.Team `json:"team"`
}

// CheckInHandler admits a team. A duplicate scan returns 200 with
// alreadyCheckedIn=true and the original check-in state.
// POST /admin/checkin
func (ch *CheckinHandlers) CheckInHandler(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.RegistrationNumber == "" {
		sharedapi.WriteBadRequest(w, "registrationNumber is required")
		return
	}
	if req.Method == "" {
		req.Method = "manual"
	}

	claims := adminFromContext(r.Context())
	if claims == nil {
		sharedapi.WriteUnauthorized(w, "missing admin session")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ch.checkins.CheckIn(ctx, req.RegistrationNumber, claims.Subject, req.Method)
	if err != nil {
		writeServiceError(w, ch.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, CheckInResponse{
		AlreadyCheckedIn: result.AlreadyCheckedIn,
		Team:             result.Team,
	})
}

// UndoCheckInHandler clears a team's presence.
// DELETE /admin/teams/{id}/checkin
func (ch *CheckinHandlers) UndoCheckInHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := ch.checkins.UndoCheckIn(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, ch.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}

// VerifyHandler answers whether a registration number could check in right
// now. Read-only; kiosks poll it freely.
// GET /checkin/verify/{regNum}
func (ch *CheckinHandlers) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ch.checkins.Verify(ctx, mux.Vars(r)["regNum"])
	if err != nil {
		writeServiceError(w, ch.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, result)
}

// HistoryHandler returns a team's check-in audit log.
// GET /admin/checkin/{regNum}/history
func (ch *CheckinHandlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	history, err := ch.checkins.History(ctx, mux.Vars(r)["regNum"])
	if err != nil {
		writeServiceError(w, ch.log, err)
		return
	}
	if history == nil {
		history = []models.CheckInEntry{}
	}
	sharedapi.WriteJSON(w, http.StatusOK, history)
}

// ListCheckedInHandler returns all currently checked-in teams.
// GET /admin/checkin/teams
func (ch *CheckinHandlers) ListCheckedInHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	teams, err := ch.checkins.ListCheckedIn(ctx)
	if err != nil {
		writeServiceError(w, ch.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, teams)
}

// StatsHandler returns the dashboard aggregates.
// GET /admin/stats
func (ch *CheckinHandlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := ch.checkins.Stats(ctx)
	if err != nil {
		writeServiceError(w, ch.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, stats)
}
