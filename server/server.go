// Package server exposes the agent over a WebSocket connection speaking
// line-delimited JSON messages.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/nbrandt/codewright/agent"
	"github.com/nbrandt/codewright/config"
	"github.com/nbrandt/codewright/llm"
	"github.com/nbrandt/codewright/tools"
)

// clientMessage is the union of every inbound payload shape. The first
// message on a connection carries the mode; later ones are discriminated by
// Type.
type clientMessage struct {
	Type    string   `json:"type"`
	Mode    string   `json:"mode"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
	Path    string   `json:"path"`
}

// fileContent answers an out-of-band get_file_content request with the raw,
// untruncated file body.
type fileContent struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Handler serves the WebSocket endpoint. It holds only process-wide
// read-only state; all mutable conversation state lives in the per-
// connection Session.
type Handler struct {
	cfg      *config.Config
	client   llm.Client
	registry *tools.Registry
	log      *slog.Logger
}

// NewHandler creates a Handler sharing the given model client and tool
// registry across connections.
func NewHandler(cfg *config.Config, client llm.Client, registry *tools.Registry, log *slog.Logger) *Handler {
	return &Handler{cfg: cfg, client: client, registry: registry, log: log}
}

// RegisterRoutes mounts the WebSocket endpoint and the health probe.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWS)
	r.Get("/healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleWS services one connection with one cooperatively scheduled
// session: inbound payloads are processed strictly one at a time, so a new
// payload is only read after the current turn fully completes or aborts.
func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error("failed to accept websocket", "error", err)
		return
	}
	defer func() {
		_ = ws.Close(websocket.StatusNormalClosure, "session ended")
	}()
	// Inbound user messages may carry base64 image payloads.
	ws.SetReadLimit(16 << 20)

	log := h.log.With("remote", r.RemoteAddr)
	log.Info("client connected")

	ctx := r.Context()
	sess := agent.NewSession(h.client, h.registry, &wsEmitter{conn: ws}, log, ".")

	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			// Disconnects and malformed payloads both end only this
			// connection.
			log.Info("client disconnected", "reason", err)
			return
		}

		switch {
		case msg.Type == "get_file_content":
			// Bypasses the agent loop entirely.
			if err := h.sendFileContent(ctx, ws, msg.Path); err != nil {
				log.Warn("failed to answer file content request", "error", err)
				return
			}
		case !sess.Initialized():
			if err := sess.Initialize(ctx, agent.ParseMode(msg.Mode)); err != nil {
				log.Warn("session start event failed", "error", err)
				return
			}
			if msg.Content != "" || len(msg.Images) > 0 {
				if err := sess.HandleMessage(ctx, msg.Content, msg.Images); err != nil {
					log.Warn("turn aborted by connection failure", "error", err)
					return
				}
			}
		case msg.Type == "user_message":
			if err := sess.HandleMessage(ctx, msg.Content, msg.Images); err != nil {
				log.Warn("turn aborted by connection failure", "error", err)
				return
			}
		}
	}
}

// sendFileContent reads the raw file through the same executor the read
// tool uses, but without the preview truncation applied to events.
func (h *Handler) sendFileContent(ctx context.Context, ws *websocket.Conn, path string) error {
	content := ""
	if t, ok := h.registry.Get("read_file"); ok {
		out, err := t.Execute(ctx, map[string]interface{}{"path": path})
		if err != nil {
			out = "Error: " + err.Error()
		}
		content = out
	}
	return wsjson.Write(ctx, ws, fileContent{Type: "file_content", Path: path, Content: content})
}

// wsEmitter delivers agent events over the connection as JSON messages.
type wsEmitter struct {
	conn *websocket.Conn
}

func (e *wsEmitter) Emit(ctx context.Context, event agent.Event) error {
	return wsjson.Write(ctx, e.conn, event)
}
