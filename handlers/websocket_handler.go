package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/notify"
)

type WebSocketHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler: an empty allowedOrigins list accepts any origin.
func NewWebSocketHandler(hub *notify.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin] || allowed["*"]
			},
		},
		logger: logger,
	}
}

// ServeWs godoc
// @Summary Подписка на события категории
// @Tags realtime
// @Description WebSocket. Клиент получает события заявок и результатов категории. Токен можно передать в ?token=.
// @Param categoryID path int true "Tournament category ID"
// @Security BearerAuth
// @Router /ws/categories/{categoryID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту
		h.logger.Warn("failed to upgrade websocket connection", slog.Int("category_id", categoryID), slog.Any("error", err))
		return
	}

	client := notify.NewClient(h.hub, conn, notify.CategoryRoom(categoryID))
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// RecentEventsSource is implemented by notify.RedisPublisher.
type RecentEventsSource interface {
	Recent(ctx context.Context, categoryID int, limit int) ([]models.Event, error)
}

type EventsHandler struct {
	source RecentEventsSource
}

func NewEventsHandler(source RecentEventsSource) *EventsHandler {
	return &EventsHandler{source: source}
}

// Recent godoc
// @Summary Последние события категории
// @Tags realtime
// @Produce json
// @Param categoryID path int true "Tournament category ID"
// @Param limit query int false "Сколько событий вернуть"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /categories/{categoryID}/events [get]
func (h *EventsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	events, err := h.source.Recent(r.Context(), categoryID, limit)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
