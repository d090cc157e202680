package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mindnotes/mindnotes-backend/internal/auth"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

var focusUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin enforcement happens at the CORS layer.
		return true
	},
}

// focusTickMessage is what the client sends over the timer channel.
type focusTickMessage struct {
	Type      string `json:"type"` // "tick", "pause", "resume", "ping"
	SessionID string `json:"session_id"`
}

type focusStateMessage struct {
	Type    string      `json:"type"`
	Session interface{} `json:"session,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// FocusChannel is the WebSocket timer channel. The client periodically sends
// tick messages while a session runs so the server can tell a live timer from
// an abandoned one, and receives the updated session state back.
type FocusChannel struct {
	sessions *services.SessionService
	tokens   *auth.Manager
	log      zerolog.Logger
}

func NewFocusChannel(sessions *services.SessionService, tokens *auth.Manager, log zerolog.Logger) *FocusChannel {
	return &FocusChannel{sessions: sessions, tokens: tokens, log: log}
}

// ServeHTTP upgrades the connection after authenticating the caller. Browser
// WebSocket clients cannot set headers, so the token may arrive as a query
// parameter instead.
func (c *FocusChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing access token", http.StatusUnauthorized)
		return
	}

	userID, err := c.tokens.VerifyAccess(token)
	if err != nil {
		http.Error(w, "invalid access token", http.StatusUnauthorized)
		return
	}

	conn, err := focusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	uid := userID.String()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var msg focusTickMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.send(conn, focusStateMessage{Type: "error", Error: "malformed message"})
			continue
		}

		switch msg.Type {
		case "ping":
			c.send(conn, focusStateMessage{Type: "pong"})
		case "tick":
			session, err := c.sessions.Tick(r.Context(), uid, msg.SessionID)
			c.reply(conn, "tick_ack", session, err)
		case "pause":
			session, err := c.sessions.Pause(r.Context(), uid, msg.SessionID)
			c.reply(conn, "paused", session, err)
		case "resume":
			session, err := c.sessions.Resume(r.Context(), uid, msg.SessionID)
			c.reply(conn, "resumed", session, err)
		default:
			c.send(conn, focusStateMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

func (c *FocusChannel) reply(conn *websocket.Conn, kind string, session interface{}, err error) {
	if err != nil {
		c.send(conn, focusStateMessage{Type: "error", Error: err.Error()})
		return
	}
	c.send(conn, focusStateMessage{Type: kind, Session: session})
}

func (c *FocusChannel) send(conn *websocket.Conn, msg focusStateMessage) {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		c.log.Debug().Err(err).Msg("focus channel write failed")
	}
}
