package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/doc-inspector/webclient/internal/models"
	"github.com/doc-inspector/webclient/internal/session"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// WebSocket message types
const (
	MsgTypeState = "state"
	MsgTypePing  = "ping"
	MsgTypePong  = "pong"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WSMessage is the envelope for every WebSocket frame
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocketHandler streams page state changes to the browser
type WebSocketHandler struct {
	pages    *session.Manager
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewWebSocketHandler creates a new page state WebSocket handler
func NewWebSocketHandler(pages *session.Manager, logger zerolog.Logger) StateSocketHandler {
	return &WebSocketHandler{
		pages: pages,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the connection and pushes a snapshot after every change
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	entry, err := lookupPage(wsh.pages, c)
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	pageID := entry.Page.ID()
	log := wsh.logger.With().Str("page", pageID).Logger()
	log.Debug().Msg("state socket connected")

	updates, cancel := entry.Page.Subscribe()
	defer cancel()

	// The reader loop answers pings and notices when the client goes away.
	closed := make(chan struct{})
	pongs := make(chan struct{}, 1)
	go wsh.readLoop(ws, pageID, closed, pongs, log)

	if err := wsh.sendState(ws, entry.Page.Snapshot()); err != nil {
		return nil
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case state, ok := <-updates:
			if !ok {
				wsh.writeClose(ws, "page closed")
				return nil
			}
			if err := wsh.sendState(ws, state); err != nil {
				log.Debug().Err(err).Msg("state socket write failed")
				return nil
			}
		case <-pongs:
			wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, ID: pageID, Timestamp: time.Now().UnixMilli()})
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-closed:
			log.Debug().Msg("state socket disconnected")
			return nil
		}
	}
}

// readLoop consumes client frames. Only "ping" messages are understood.
func (wsh *WebSocketHandler) readLoop(ws *websocket.Conn, pageID string, closed chan<- struct{}, pongs chan<- struct{}, log zerolog.Logger) {
	defer close(closed)

	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("state socket read error")
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(wsPongWait))

		if msg.Type == MsgTypePing {
			wsh.pages.Touch(pageID)
			select {
			case pongs <- struct{}{}:
			default:
			}
		}
	}
}

func (wsh *WebSocketHandler) sendState(ws *websocket.Conn, state models.PageState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeState,
		ID:        state.ID,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) error {
	ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.WriteJSON(msg); err != nil {
		wsh.logger.Debug().Err(err).Str("type", msg.Type).Msg("failed to send message")
		return err
	}
	return nil
}

func (wsh *WebSocketHandler) writeClose(ws *websocket.Conn, reason string) {
	ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, reason))
}
