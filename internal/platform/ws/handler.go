package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

// TokenVerifier validates a bearer token and returns the actor it represents.
type TokenVerifier func(token string) (auth.Actor, error)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the HTTP layer.
	},
}

// Handler upgrades HTTP connections and runs the read/write pumps.
type Handler struct {
	hub    *Hub
	verify TokenVerifier
}

func NewHandler(hub *Hub, verify TokenVerifier) *Handler {
	return &Handler{hub: hub, verify: verify}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect authenticates the handshake, upgrades the connection, joins
// the client to its role and department rooms, and starts the pumps. Browsers
// cannot set headers on websocket handshakes, so the token is also accepted
// as a query parameter.
func (h *Handler) HandleConnect(c echo.Context) error {
	token := handshakeToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	actor, err := h.verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	rooms := []string{RoleRoom(actor.Role)}
	if actor.Department != "" {
		rooms = append(rooms, DeptRoom(actor.Department))
	}

	client := &Client{
		Actor: actor,
		Rooms: rooms,
		Send:  make(chan []byte, 256),
		conn:  &gorillaConnAdapter{conn},
	}
	h.hub.Register(client)

	welcome, _ := json.Marshal(Event{
		Type:      EventConnected,
		Timestamp: time.Now().UTC(),
		Data:      map[string]any{"rooms": rooms},
	})
	client.Send <- welcome

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

func handshakeToken(c echo.Context) string {
	if header := c.Request().Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return c.QueryParam("token")
}

func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.Unregister(client)
		client.conn.Close()
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // ignore malformed messages
		}
		h.hub.ProcessMessage(client, msg)
	}
}

func (h *Handler) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
