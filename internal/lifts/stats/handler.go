package stats

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/2beens/prtracker/internal/auth"
	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/lifts/records"
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
	r.HandleFunc("/stats/home", h.HandleHome).Methods("GET", "OPTIONS").Name("stats-home")
	r.HandleFunc("/stats/leaderboard", h.HandleLeaderboard).Methods("GET", "OPTIONS").Name("stats-leaderboard")
	r.HandleFunc("/stats/averages", h.HandleGlobalAverages).Methods("GET", "OPTIONS").Name("stats-averages")
	r.HandleFunc("/stats/progress/{exercise}", h.HandleProgress).Methods("GET", "OPTIONS").Name("stats-progress")
}

func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.home")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get home stats failed")
		return
	}

	mode, err := ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get home stats failed")
		return
	}

	home, err := h.service.Home(ctx, userID, mode)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get home stats failed")
		return
	}

	pkg.WriteJSON(w, home, http.StatusOK)
}

func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.leaderboard")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get leaderboard failed")
		return
	}

	mode, err := ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get leaderboard failed")
		return
	}

	leaderboard, err := h.service.Leaderboard(ctx, userID, mode)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get leaderboard failed")
		return
	}

	pkg.WriteJSON(w, leaderboard, http.StatusOK)
}

func (h *Handler) HandleGlobalAverages(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.averages")
	defer span.End()

	averages, err := h.service.GlobalAverages(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get global averages failed")
		return
	}

	pkg.WriteJSON(w, averages, http.StatusOK)
}

func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.progress")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get progress failed")
		return
	}

	exercise, err := records.ParseExercise(mux.Vars(r)["exercise"])
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get progress failed")
		return
	}

	progress, err := h.service.Progress(ctx, userID, exercise)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get progress failed")
		return
	}

	pkg.WriteJSON(w, progress, http.StatusOK)
}
