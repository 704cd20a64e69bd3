// registration/api/team_handler.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hackbits/registration-service/registration/service"
	sharedapi "github.com/hackbits/registration-service/shared/api"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// requestTimeout bounds every handler's downstream work.
const requestTimeout = 5 * time.Second

// TeamHandlers exposes the public registration surface.
type TeamHandlers struct {
	registration *service.RegistrationService
	log          *logger.Logger
}

// NewTeamHandlers creates the handler set for team registration routes.
func NewTeamHandlers(registration *service.RegistrationService, log *logger.Logger) *TeamHandlers {
	return &TeamHandlers{registration: registration, log: log}
}

// RegisterRoutes mounts the public team routes.
func (th *TeamHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/teams", th.RegisterTeamHandler).Methods(http.MethodPost)
	router.HandleFunc("/teams/verified", th.ListVerifiedHandler).Methods(http.MethodGet)
	router.HandleFunc("/teams/{id}", th.GetTeamHandler).Methods(http.MethodGet)
	router.HandleFunc("/teams/registration/{regNum}", th.GetByRegistrationHandler).Methods(http.MethodGet)
	router.HandleFunc("/teams/participant/{userId}", th.GetByParticipantHandler).Methods(http.MethodGet)
}

// --- Request DTOs ---

type participantDTO struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type RegisterTeamRequest struct {
	TeamName string           `json:"teamName"`
	TeamSize string           `json:"teamSize"`
	Leader   participantDTO   `json:"leader"`
	Members  []participantDTO `json:"members"`
}

func (dto participantDTO) model() models.Participant {
	return models.Participant{
		UserID: strings.TrimSpace(dto.UserID),
		Name:   strings.TrimSpace(dto.Name),
		Email:  strings.TrimSpace(dto.Email),
	}
}

// RegisterTeamHandler creates a new team.
// POST /teams
func (th *TeamHandlers) RegisterTeamHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}

	req.TeamName = strings.TrimSpace(req.TeamName)
	if req.TeamName == "" {
		sharedapi.WriteBadRequest(w, "team name is required")
		return
	}
	if req.Leader.UserID == "" || req.Leader.Email == "" {
		sharedapi.WriteBadRequest(w, "leader userId and email are required")
		return
	}

	input := service.RegisterTeamInput{
		TeamName: req.TeamName,
		TeamSize: models.TeamSize(req.TeamSize),
		Leader:   req.Leader.model(),
	}
	for _, m := range req.Members {
		if m.UserID == "" {
			sharedapi.WriteBadRequest(w, "member userId is required")
			return
		}
		input.Members = append(input.Members, m.model())
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := th.registration.RegisterTeam(ctx, input)
	if err != nil {
		writeServiceError(w, th.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusCreated, team)
}

// ListVerifiedHandler lists verified teams for the public leaderboard.
// GET /teams/verified
func (th *TeamHandlers) ListVerifiedHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	teams, err := th.registration.ListTeams(ctx, models.PaymentVerified)
	if err != nil {
		writeServiceError(w, th.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, teams)
}

// GetTeamHandler retrieves a team by id.
// GET /teams/{id}
func (th *TeamHandlers) GetTeamHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := th.registration.GetTeam(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, th.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}

// GetByRegistrationHandler retrieves a team by registration number.
// GET /teams/registration/{regNum}
func (th *TeamHandlers) GetByRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := th.registration.GetTeamByRegistrationNumber(ctx, mux.Vars(r)["regNum"])
	if err != nil {
		writeServiceError(w, th.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}

// GetByParticipantHandler retrieves the team a user belongs to.
// GET /teams/participant/{userId}
func (th *TeamHandlers) GetByParticipantHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := th.registration.GetTeamByParticipant(ctx, mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, th.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}
