package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/internal/validation"
	"github.com/2beens/prtracker/pkg"
)

const TokenHeader = "X-PR-TOKEN"

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type Handler struct {
	authService *Service
}

func NewHandler(authService *Service) *Handler {
	return &Handler{
		authService: authService,
	}
}

// SetupRoutes registers the /a routes and returns their subrouter,
// so the caller can attach rate limiting to it.
func (handler *Handler) SetupRoutes(mainRouter *mux.Router) *mux.Router {
	authRouter := mainRouter.PathPrefix("/a").Subrouter()
	authRouter.HandleFunc("/register", handler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", handler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", handler.HandleLogout).Methods("GET", "POST", "OPTIONS").Name("logout")
	authRouter.HandleFunc("/me", handler.HandleMe).Methods("GET", "OPTIONS").Name("me")

	return authRouter
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.register")
	defer span.End()

	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		http.Error(w, "invalid register request", http.StatusBadRequest)
		return
	}

	if err := validation.Struct(creds); err != nil {
		errvalues.WriteHTTPError(w, err, "register failed")
		return
	}

	account, err := handler.authService.Register(ctx, creds, time.Now())
	if err != nil {
		errvalues.WriteHTTPError(w, err, "register failed")
		return
	}

	span.SetAttributes(attribute.String("user.id", account.ID))
	pkg.WriteJSON(w, account, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		http.Error(w, "invalid login request", http.StatusBadRequest)
		return
	}

	if creds.Email == "" || creds.Password == "" {
		http.Error(w, "error, email or password empty", http.StatusBadRequest)
		return
	}

	token, userID, err := handler.authService.Login(ctx, creds, time.Now())
	if err != nil {
		errvalues.WriteHTTPError(w, err, "login failed")
		return
	}

	span.SetAttributes(attribute.String("user.id", userID))
	pkg.WriteJSON(w, LoginResponse{Token: token, UserID: userID}, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	authToken := r.Header.Get(TokenHeader)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.Logout(ctx, authToken)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "logout failed")
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.me")
	defer span.End()

	userID, err := RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get current user failed")
		return
	}

	account, err := handler.authService.Account(ctx, userID)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "get current user failed")
		return
	}

	pkg.WriteJSON(w, account, http.StatusOK)
}
