package eventbus

import (
	"net/http"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/logger"
	"terraforming-mars-backend/internal/persistence"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated HTTP requests to the event channel
// websocket, resolving the account identity from the auth token query
// parameter up front instead of a later in-band "join" message.
type Handler struct {
	hub   *Hub
	store *persistence.Store
}

// NewHandler builds an event channel HTTP handler bound to hub.
func NewHandler(hub *Hub, store *persistence.Store) *Handler {
	return &Handler{hub: hub, store: store}
}

// ServeWS upgrades the request, authenticates the caller by the `token`
// query parameter, and hands the resulting connection to the hub.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	identity, err := persistence.AccountByAuthToken(r.Context(), h.store.DB(), token)
	if err != nil {
		if appErr, ok := err.(*apperrors.Error); ok {
			http.Error(w, appErr.Message, http.StatusUnauthorized)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("eventbus upgrade failed", zap.Error(err))
		return
	}

	c := NewConnection(uuid.NewString(), identity.Account.ID, conn, func(conn *Connection) {
		h.hub.Unregister(conn)
	})
	h.hub.Register(c)

	go c.WritePump()
	go c.ReadPump(h.hub)
}
