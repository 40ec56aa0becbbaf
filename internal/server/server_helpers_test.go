package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-arena/internal/config"

	"github.com/gorilla/websocket"
)

type wsFrame struct {
	Type string          `json:"type"`
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

func startServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(config.Default(), nil, nil, nil)
	srv.Start(context.Background())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Close(ctx)
	})
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var frame wsFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode websocket message: %v", err)
	}
	return frame
}

// waitForFrame reads until a frame of msgType arrives, skipping others.
func waitForFrame(t *testing.T, conn *websocket.Conn, msgType string) wsFrame {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		frame := readFrame(t, conn, time.Until(deadline))
		if frame.Type == msgType {
			return frame
		}
	}
	t.Fatalf("timed out waiting for %s", msgType)
	return wsFrame{}
}

func decodeData(t *testing.T, frame wsFrame, out any) {
	t.Helper()
	if err := json.Unmarshal(frame.Data, out); err != nil {
		t.Fatalf("decode %s data: %v", frame.Type, err)
	}
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func hostSession(t *testing.T, conn *websocket.Conn, userID string) string {
	t.Helper()
	sendFrame(t, conn, msgCreateSession, map[string]any{
		"questionSetId":   "basic-science",
		"hostUserId":      userID,
		"hostDisplayName": "Host",
	})
	frame := waitForFrame(t, conn, msgSessionCreated)
	var data sessionCreatedData
	decodeData(t, frame, &data)
	if !isJoinCode(data.Code) {
		t.Fatalf("unexpected session code %q", data.Code)
	}
	return data.Code
}

func configWithOrigins(origins ...string) config.Config {
	cfg := config.Default()
	cfg.AllowedOrigins = origins
	return cfg
}
