package profiles

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/prtracker/internal/auth"
	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/pkg"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/profile", h.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile", h.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-profile")
	r.HandleFunc("/profile/onboarding", h.HandleOnboarding).Methods("POST", "OPTIONS").Name("onboarding")
	r.HandleFunc("/profiles", h.HandleSearch).Methods("GET", "OPTIONS").Name("search-profiles")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.get")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get profile failed")
		return
	}

	profile, err := h.service.Get(ctx, userID)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get profile failed")
		return
	}

	pkg.WriteJSON(w, profile, http.StatusOK)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.update")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "update profile failed")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update profile, unmarshal json params: %s", err)
		http.Error(w, "invalid profile update request", http.StatusBadRequest)
		return
	}

	res, err := h.service.Update(ctx, userID, req)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "update profile failed")
		return
	}

	pkg.WriteJSON(w, res, http.StatusOK)
}

func (h *Handler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.onboarding")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "onboarding failed")
		return
	}

	var req OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("onboarding, unmarshal json params: %s", err)
		http.Error(w, "invalid onboarding request", http.StatusBadRequest)
		return
	}

	res, err := h.service.Onboard(ctx, userID, req)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "onboarding failed")
		return
	}

	pkg.WriteJSON(w, res, http.StatusCreated)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.search")
	defer span.End()

	profiles, err := h.service.Search(ctx, r.URL.Query().Get("username"))
	if err != nil {
		errvalues.WriteHTTPError(w, err, "search profiles failed")
		return
	}

	pkg.WriteJSON(w, profiles, http.StatusOK)
}
