package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// Envelope used for outgoing WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Incoming chat frame.
type wsPrompt struct {
	Prompt string `json:"prompt"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsChat serves the chat pipeline over a WebSocket: each incoming
// {"prompt": ...} frame is answered with one envelope. Prompts are handled
// sequentially per connection, matching the strictly sequential pipeline.
func (h *Handler) wsChat(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	prompts := make(chan string)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go h.readPrompts(conn, prompts, done, quit)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case prompt := <-prompts:
			if err := h.answerPrompt(c.Request.Context(), conn, prompt); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// readPrompts decodes incoming frames and forwards prompts until the
// connection closes or quit is closed. Malformed frames are skipped. The send
// must stay selectable: closing the connection cannot unblock a channel send,
// so a pending prompt would otherwise pin this goroutine after the writer
// returns.
func (h *Handler) readPrompts(conn *websocket.Conn, prompts chan<- string, done chan<- struct{}, quit <-chan struct{}) {
	defer close(done)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		var frame wsPrompt
		if err := json.Unmarshal(payload, &frame); err != nil || strings.TrimSpace(frame.Prompt) == "" {
			continue
		}
		select {
		case prompts <- frame.Prompt:
		case <-quit:
			return
		}
	}
}

// answerPrompt runs the pipeline for one prompt and writes the reply with a
// write deadline. Pipeline failures still produce a presentable envelope.
func (h *Handler) answerPrompt(ctx context.Context, conn *websocket.Conn, prompt string) error {
	reply, err := h.services.Assistant.Answer(ctx, prompt)
	envelope := wsEnvelope{Type: "answer", Data: gin.H{"response": reply}}
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_chat_failed", "err", err)
		}
		envelope.Error = "internal"
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(envelope)
}
