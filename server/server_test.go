package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/nbrandt/codewright/config"
	"github.com/nbrandt/codewright/llm"
	"github.com/nbrandt/codewright/tools"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	cfg := &config.Config{
		Provider:            "mock",
		Model:               "test",
		Port:                "0",
		ShellTimeoutSeconds: 5,
	}
	registry := tools.NewRegistry()
	registry.Register(tools.NewReadFileTool(&cfg.FilesystemAccess))
	registry.Register(tools.NewWriteFileTool(&cfg.FilesystemAccess))
	registry.Register(tools.NewRunCommandTool(cfg.ShellTimeout(), cfg.AllowedCommands))
	registry.Register(tools.NewWebSearchTool())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(cfg, &llm.MockClient{}, registry, log)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func dialWS(t *testing.T, ctx context.Context, baseURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = ws.Close(websocket.StatusNormalClosure, "test done") })
	return ws
}

func readEvent(t *testing.T, ctx context.Context, ws *websocket.Conn) map[string]interface{} {
	t.Helper()
	var event map[string]interface{}
	if err := wsjson.Read(ctx, ws, &event); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	return event
}

func TestHealthEndpoint(t *testing.T) {
	base := startTestServer(t)

	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q", body)
	}
}

func TestInitializeEmitsStartThought(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ws := dialWS(t, ctx, startTestServer(t))

	if err := wsjson.Write(ctx, ws, map[string]interface{}{"mode": "chat"}); err != nil {
		t.Fatal(err)
	}

	event := readEvent(t, ctx, ws)
	if event["type"] != "thought" {
		t.Fatalf("first event = %v, want thought", event)
	}
	if event["content"] != "Session started in chat mode. I'm ready." {
		t.Errorf("content = %q", event["content"])
	}
	if _, hasID := event["id"]; hasID {
		t.Errorf("start thought carries an id: %v", event)
	}
}

func TestUserMessageStreamsMockReply(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ws := dialWS(t, ctx, startTestServer(t))

	if err := wsjson.Write(ctx, ws, map[string]interface{}{"mode": "agent"}); err != nil {
		t.Fatal(err)
	}
	readEvent(t, ctx, ws) // start thought

	if err := wsjson.Write(ctx, ws, map[string]interface{}{
		"type":    "user_message",
		"content": "ping",
	}); err != nil {
		t.Fatal(err)
	}

	event := readEvent(t, ctx, ws)
	if event["type"] != "thought" {
		t.Fatalf("reply event = %v, want thought", event)
	}
	content, _ := event["content"].(string)
	if !strings.Contains(content, "You said: 'ping'") {
		t.Errorf("content = %q, want mock echo", content)
	}
	id, _ := event["id"].(string)
	if !strings.HasPrefix(id, "thought-") {
		t.Errorf("thought id = %q", id)
	}
}

func TestFirstMessageMayCarryContent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ws := dialWS(t, ctx, startTestServer(t))

	// Mode and first user message in one payload.
	if err := wsjson.Write(ctx, ws, map[string]interface{}{
		"mode":    "chat",
		"content": "hello there",
	}); err != nil {
		t.Fatal(err)
	}

	start := readEvent(t, ctx, ws)
	if start["content"] != "Session started in chat mode. I'm ready." {
		t.Fatalf("first event = %v", start)
	}
	reply := readEvent(t, ctx, ws)
	content, _ := reply["content"].(string)
	if !strings.Contains(content, "You said: 'hello there'") {
		t.Errorf("reply = %q", content)
	}
}

func TestGetFileContentBypassesAgent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	body := strings.Repeat("line of text\n", 100)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ws := dialWS(t, ctx, startTestServer(t))

	if err := wsjson.Write(ctx, ws, map[string]interface{}{
		"type": "get_file_content",
		"path": path,
	}); err != nil {
		t.Fatal(err)
	}

	event := readEvent(t, ctx, ws)
	if event["type"] != "file_content" {
		t.Fatalf("event = %v, want file_content", event)
	}
	if event["path"] != path {
		t.Errorf("path = %v", event["path"])
	}
	// The out-of-band channel returns the full body, never a preview.
	if event["content"] != body {
		t.Errorf("content length = %d, want %d", len(event["content"].(string)), len(body))
	}
}

func TestUnknownModeDefaultsToAgent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ws := dialWS(t, ctx, startTestServer(t))

	if err := wsjson.Write(ctx, ws, map[string]interface{}{"mode": "turbo"}); err != nil {
		t.Fatal(err)
	}

	event := readEvent(t, ctx, ws)
	if event["content"] != "Session started in agent mode. I'm ready." {
		t.Errorf("start thought = %q", event["content"])
	}
}
