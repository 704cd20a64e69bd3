// registration/api/admin_handler.go
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
	"github.com/hackbits/registration-service/shared/registry"
)

// AdminHandlers exposes the operator console surface: login, team listing,
// verification decisions and ticket retrieval.
type AdminHandlers struct {
	auth         *service.AuthService
	registration *service.RegistrationService
	verification *service.VerificationService
	instances    *registry.Client
	log          *logger.Logger
}

// NewAdminHandlers creates the handler set for admin routes. instances may
// be nil when no registry is deployed.
func NewAdminHandlers(auth *service.AuthService, registration *service.RegistrationService, verification *service.VerificationService, instances *registry.Client, log *logger.Logger) *AdminHandlers {
	return &AdminHandlers{
		auth:         auth,
		registration: registration,
		verification: verification,
		instances:    instances,
		log:          log,
	}
}

// RegisterRoutes mounts login on the public router and everything else on
// the authenticated subrouter.
func (ah *AdminHandlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/admin/login", ah.LoginHandler).Methods(http.MethodPost)

	protected.HandleFunc("/admin/password", ah.ChangePasswordHandler).Methods(http.MethodPut)
	protected.HandleFunc("/admin/teams", ah.ListTeamsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/admin/teams/{id}/payment-status", ah.SetPaymentStatusHandler).Methods(http.MethodPut)
	protected.HandleFunc("/admin/teams/{id}/ticket", ah.TicketDocumentHandler).Methods(http.MethodGet)
	protected.HandleFunc("/admin/instances", ah.ListInstancesHandler).Methods(http.MethodGet)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler authenticates an operator and returns a session token.
// POST /admin/login
func (ah *AdminHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		sharedapi.WriteBadRequest(w, "username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session, err := ah.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, ah.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, session)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePasswordHandler rotates the authenticated admin's password.
// PUT /admin/password
func (ah *AdminHandlers) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		sharedapi.WriteBadRequest(w, "new password must be at least 8 characters")
		return
	}

	claims := adminFromContext(r.Context())
	if claims == nil {
		sharedapi.WriteUnauthorized(w, "missing admin session")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := ah.auth.ChangePassword(ctx, claims.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, ah.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// ListTeamsHandler lists teams, optionally filtered by payment status.
// GET /admin/teams?status=pending
func (ah *AdminHandlers) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	status := models.PaymentStatus(r.URL.Query().Get("status"))
	teams, err := ah.registration.ListTeams(ctx, status)
	if err != nil {
		writeServiceError(w, ah.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, teams)
}

type SetPaymentStatusRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

// SetPaymentStatusHandler applies a verification decision.
// PUT /admin/teams/{id}/payment-status
func (ah *AdminHandlers) SetPaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req SetPaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request body")
		return
	}

	claims := adminFromContext(r.Context())
	if claims == nil {
		sharedapi.WriteUnauthorized(w, "missing admin session")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := ah.verification.SetPaymentStatus(ctx, mux.Vars(r)["id"],
		models.PaymentStatus(req.Status), req.RejectionReason, claims.Subject)
	if err != nil {
		writeServiceError(w, ah.log, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}

// TicketDocumentHandler returns the printable ticket of a verified team.
// GET /admin/teams/{id}/ticket
func (ah *AdminHandlers) TicketDocumentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	doc, err := ah.verification.TicketDocument(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, ah.log, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// ListInstancesHandler returns the live service instances known to the
// registry.
// GET /admin/instances
func (ah *AdminHandlers) ListInstancesHandler(w http.ResponseWriter, r *http.Request) {
	instances := []registry.InstanceInfo{}
	if ah.instances != nil {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		active, err := ah.instances.ActiveInstances(ctx, "registration-service")
		if err != nil {
			writeServiceError(w, ah.log, err)
			return
		}
		if active != nil {
			instances = active
		}
	}
	sharedapi.WriteJSON(w, http.StatusOK, instances)
}
