package notifications

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/prtracker/internal/auth"
	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/pkg"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

type Handler struct {
	service  *Service
	upgrader websocket.Upgrader
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are checked by the cors middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/notifications", h.HandleList).Methods("GET", "OPTIONS").Name("list-notifications")
	r.HandleFunc("/notifications/unread/count", h.HandleUnreadCount).Methods("GET", "OPTIONS").Name("unread-notifications-count")
	r.HandleFunc("/notifications/stream", h.HandleStream).Methods("GET").Name("notifications-stream")
	r.HandleFunc("/notifications/{id}/read", h.HandleMarkRead).Methods("POST", "OPTIONS").Name("mark-notification-read")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.notifications.list")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "list notifications failed")
		return
	}

	views, err := h.service.List(ctx, userID)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "list notifications failed")
		return
	}

	pkg.WriteJSON(w, views, http.StatusOK)
}

func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.notifications.unread_count")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "count notifications failed")
		return
	}

	count, err := h.service.UnreadCount(ctx, userID)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "count notifications failed")
		return
	}

	pkg.WriteJSON(w, map[string]int{"count": count}, http.StatusOK)
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.notifications.mark_read")
	defer span.End()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "mark notification read failed")
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(ctx, userID, id); err != nil {
		errvalues.WriteHTTPError(w, err, "mark notification read failed")
		return
	}

	pkg.WriteTextResponseOK(w, "read")
}

// HandleStream upgrades to a websocket and pushes new notifications of the
// current user until the client goes away or the request context ends.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		errvalues.WriteHTTPError(w, err, "notifications stream failed")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already replied with an error
		log.Debugf("notifications stream upgrade for %s: %s", userID, err)
		return
	}

	notifications, unsubscribe := h.service.Subscribe(userID)
	defer unsubscribe()

	// reads are only needed to notice a closed socket
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debugf("notifications stream for %s opened", userID)

	pingTicker := time.NewTicker(streamPingInterval)
	defer pingTicker.Stop()

	closeCode := websocket.CloseNormalClosure
loop:
	for {
		select {
		case <-ctx.Done():
			closeCode = websocket.CloseGoingAway
			break loop
		case <-clientGone:
			break loop
		case n, ok := <-notifications:
			if !ok {
				closeCode = websocket.CloseGoingAway
				break loop
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(View{Notification: n, Unread: n.UnreadFor(userID)}); err != nil {
				log.Debugf("notifications stream for %s, write: %s", userID, err)
				break loop
			}
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				log.Debugf("notifications stream for %s, ping: %s", userID, err)
				break loop
			}
		}
	}

	closeMsg := websocket.FormatCloseMessage(closeCode, "")
	err = multierr.Append(
		conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second)),
		conn.Close(),
	)
	<-clientGone

	if err != nil {
		log.Tracef("notifications stream for %s closed: %s", userID, err)
		return
	}
	log.Debugf("notifications stream for %s closed", userID)
}
