package friends

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/prtracker/internal/auth"
	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/internal/validation"
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

// SetupRoutes registers the friend routes. addLimiter, when set, guards adding friends.
func (h *Handler) SetupRoutes(r *mux.Router, addLimiter mux.MiddlewareFunc) {
	var addHandler http.Handler = http.HandlerFunc(h.HandleAdd)
	if addLimiter != nil {
		addHandler = addLimiter(addHandler)
	}

	r.Handle("/friends", addHandler).Methods("POST", "OPTIONS").Name("add-friend")
	r.HandleFunc("/friends", h.HandleList).Methods("GET", "OPTIONS").Name("list-friends")
	r.HandleFunc("/friends/{id}", h.HandleRemove).Methods("DELETE", "OPTIONS").Name("remove-friend")
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.friends.add")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "add friend failed")
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("add friend, unmarshal json params: %s", err)
		http.Error(w, "invalid friend request", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		errvalues.WriteHTTPError(w, err, "add friend failed")
		return
	}

	friend, err := h.service.AddFriend(ctx, userID, req.Username)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "add friend failed")
		return
	}

	pkg.WriteJSON(w, friend, http.StatusCreated)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.friends.list")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "list friends failed")
		return
	}

	friends, err := h.service.ListFriends(ctx, userID)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "list friends failed")
		return
	}

	pkg.WriteJSON(w, friends, http.StatusOK)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.friends.remove")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "remove friend failed")
		return
	}

	if err := h.service.RemoveFriend(ctx, userID, mux.Vars(r)["id"]); err != nil {
		errvalues.WriteHTTPError(w, err, "remove friend failed")
		return
	}

	pkg.WriteTextResponseOK(w, "removed")
}
