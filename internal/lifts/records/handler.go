package records

import (
	"encoding/json"
	"net/http"
	"strconv"

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
	r.HandleFunc("/records", h.HandleAdd).Methods("POST", "OPTIONS").Name("new-record")
	r.HandleFunc("/records", h.HandleList).Methods("GET", "OPTIONS").Name("list-records")
	r.HandleFunc("/records/{id}", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-record")
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.add")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "add record failed")
		return
	}

	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		log.Tracef("add record, unmarshal json params: %s", err)
		http.Error(w, "invalid record request", http.StatusBadRequest)
		return
	}

	res, err := h.service.Submit(ctx, userID, sub)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "add record failed")
		return
	}

	pkg.WriteJSON(w, res, http.StatusCreated)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.list")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "list records failed")
		return
	}

	params := ListParams{UserID: userID}
	if exerciseParam := r.URL.Query().Get("exercise"); exerciseParam != "" {
		exercise, err := ParseExercise(exerciseParam)
		if err != nil {
			errvalues.WriteHTTPError(w, err, "list records failed")
			return
		}
		params.Exercise = &exercise
	}
	if params.Order, err = ParseOrder(r.URL.Query().Get("order")); err != nil {
		errvalues.WriteHTTPError(w, err, "list records failed")
		return
	}

	records, err := h.service.List(ctx, params)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "list records failed")
		return
	}

	pkg.WriteJSON(w, records, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.delete")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "delete record failed")
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(ctx, userID, id); err != nil {
		errvalues.WriteHTTPError(w, err, "delete record failed")
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}
