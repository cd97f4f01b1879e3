// Package httpapi exposes the core services over a JSON REST surface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/security"
	"frrand-backend/internal/service"
)

type contextKey string

const userIDKey contextKey = "userID"

// API holds the service dependencies of the HTTP layer.
type API struct {
	auth     service.AuthService
	location service.LocationService
	address  service.AddressService
	request  service.RequestService
	invite   service.InviteService
	comment  service.CommentService
	tokens   security.TokenManager
	log      *slog.Logger
}

func NewAPI(
	auth service.AuthService,
	location service.LocationService,
	address service.AddressService,
	request service.RequestService,
	invite service.InviteService,
	comment service.CommentService,
	tokens security.TokenManager,
) *API {
	return &API{
		auth:     auth,
		location: location,
		address:  address,
		request:  request,
		invite:   invite,
		comment:  comment,
		tokens:   tokens,
		log:      logger.WithService("http"),
	}
}

// Routes registers every endpoint on the router.
func (a *API) Routes(r *mux.Router) {
	r.HandleFunc("/signup", a.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/login", a.handleLogin).Methods(http.MethodPost)

	s := r.NewRoute().Subrouter()
	s.Use(a.requireAuth)
	s.HandleFunc("/devices", a.handleProvisionDevice).Methods(http.MethodPost)
	s.HandleFunc("/vouchers/redeem", a.handleRedeemVoucher).Methods(http.MethodPost)

	s.HandleFunc("/locations", a.handleReportLocation).Methods(http.MethodPost)

	s.HandleFunc("/addresses", a.handleCreateAddress).Methods(http.MethodPost)
	s.HandleFunc("/addresses/{id}", a.handleUpdateAddress).Methods(http.MethodPatch)
	s.HandleFunc("/addresses/{id}", a.handleDeleteAddress).Methods(http.MethodDelete)

	s.HandleFunc("/requests", a.handleCreateRequest).Methods(http.MethodPost)
	s.HandleFunc("/requests/{id}", a.handleGetRequest).Methods(http.MethodGet)
	s.HandleFunc("/requests/{id}/attach", a.handleAttachInvite).Methods(http.MethodPost)
	s.HandleFunc("/requests/{id}/complete", a.handleCompleteRequest).Methods(http.MethodPost)
	s.HandleFunc("/requests/{id}/cancel", a.handleCancelRequest).Methods(http.MethodPost)
	s.HandleFunc("/requests/{id}/feedback", a.handleRequestFeedback).Methods(http.MethodPost)

	s.HandleFunc("/requestInvites/{id}/accept", a.handleAcceptInvite).Methods(http.MethodPost)
	s.HandleFunc("/requestInvites/{id}", a.handleDeclineInvite).Methods(http.MethodDelete)
	s.HandleFunc("/requestInvites/{id}/feedback", a.handleInviteFeedback).Methods(http.MethodPost)

	s.HandleFunc("/publicRequestInvites", a.handleListPublicInvites).Methods(http.MethodGet)
	s.HandleFunc("/publicRequestInvites/{id}/claim", a.handleClaimPublicInvite).Methods(http.MethodPost)

	s.HandleFunc("/comments", a.handleAddComment).Methods(http.MethodPost)
	s.HandleFunc("/comments", a.handleListComments).Methods(http.MethodGet).
		Queries("target", "{target}", "targetId", "{targetId}")
}

// requireAuth validates the bearer token and stashes the caller's id.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := a.tokens.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		userID, err := claims.SubjectID()
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token subject")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) primitive.ObjectID {
	id, _ := r.Context().Value(userIDKey).(primitive.ObjectID)
	return id
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(mux.Vars(r)[name])
}

func primitiveIDFromHex(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}

// respondDomainError maps domain sentinels onto HTTP status codes.
func (a *API) respondDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInviteExpired):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyAttached),
		errors.Is(err, domain.ErrAttachInvite),
		errors.Is(err, domain.ErrAlreadyComplete),
		errors.Is(err, domain.ErrCompleteUnattached),
		errors.Is(err, domain.ErrCompleteOnCreate),
		errors.Is(err, domain.ErrImmutableAccepted),
		errors.Is(err, domain.ErrDeleteAttached),
		errors.Is(err, domain.ErrMutuallyCancelled),
		errors.Is(err, domain.ErrDuplicateAddress),
		errors.Is(err, domain.ErrDuplicateCandidate),
		errors.Is(err, domain.ErrImmutableCoordinates),
		errors.Is(err, domain.ErrImmutablePoints),
		errors.Is(err, domain.ErrImmutableFeedback),
		errors.Is(err, domain.ErrFeedbackUncompleted),
		errors.Is(err, domain.ErrAddressMismatch),
		errors.Is(err, domain.ErrRatingContention),
		errors.Is(err, domain.ErrInvalidVoucher):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientPoints),
		errors.Is(err, domain.ErrNoLocationHistory):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotifierFailure):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		a.log.Error("request failed", "error", err)
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}
