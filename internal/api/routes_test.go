package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tiltmaze/backend/internal/config"
	"github.com/tiltmaze/backend/internal/game"
	"github.com/tiltmaze/backend/internal/ws"
)

type testServer struct {
	router  *gin.Engine
	manager *game.Manager
	cfg     *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment:            "test",
		JWTSecret:              "test-secret",
		SessionTokenTTLMinutes: 5,
		IdleExpireSeconds:      600,
		FrameRate:              60,
		FrameBroadcastEvery:    1,
	}
	tuning := game.DefaultTuning()
	tuning.Input.ProbeTimeoutMs = 20

	m := game.NewManager(tuning, cfg.FrameRate)
	t.Cleanup(m.Shutdown)

	hub := ws.NewHub(m, nil, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	router := gin.New()
	SetupRoutes(router, m, hub, nil, cfg)
	return &testServer{router: router, manager: m, cfg: cfg}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type createResponse struct {
	SessionID string     `json:"session_id"`
	Token     string     `json:"token"`
	Frame     game.Frame `json:"frame"`
}

func (s *testServer) create(t *testing.T, body string) createResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/sessions", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	var resp createResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealthAndConfig(t *testing.T) {
	s := newTestServer(t)

	s.create(t, `{"width":800,"height":600}`)
	s.create(t, `{"width":800,"height":600}`)

	w := s.do(http.MethodGet, "/api/v1/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	var health map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &health)
	if health["status"] != "ok" || health["idle_store"] != "memory" {
		t.Errorf("health = %v", health)
	}
	if health["sessions"] != float64(2) {
		t.Errorf("sessions = %v, want 2", health["sessions"])
	}

	w = s.do(http.MethodGet, "/api/v1/config", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("config status = %d", w.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["frame_rate"] != float64(60) {
		t.Errorf("frame_rate = %v", body["frame_rate"])
	}
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t)
	resp := s.create(t, `{"width":800,"height":600,"seed":5}`)

	if resp.SessionID == "" || resp.Token == "" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Frame.Status != game.StatusReady {
		t.Errorf("status = %s, want ready", resp.Frame.Status)
	}
	if resp.Frame.Target.Position != game.NewVec2(750, 550) {
		t.Errorf("target = %+v", resp.Frame.Target.Position)
	}
	if len(resp.Frame.Walls) != 5 {
		t.Errorf("walls = %d, want 5", len(resp.Frame.Walls))
	}
}

func TestCreateSessionRejectsBadViewport(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{`{}`, `{"width":-10,"height":600}`, `{"width":1e12,"height":1e12}`, `not json`} {
		if w := s.do(http.MethodPost, "/api/v1/sessions", body, ""); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestGetAndEndSession(t *testing.T) {
	s := newTestServer(t)
	resp := s.create(t, `{"width":800,"height":600}`)
	path := "/api/v1/sessions/" + resp.SessionID

	if w := s.do(http.MethodGet, path, "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("get without token = %d, want 401", w.Code)
	}
	if w := s.do(http.MethodGet, path, "", resp.Token); w.Code != http.StatusOK {
		t.Errorf("get = %d, want 200", w.Code)
	}
	if w := s.do(http.MethodDelete, path, "", resp.Token); w.Code != http.StatusOK {
		t.Errorf("delete = %d, want 200", w.Code)
	}
	if w := s.do(http.MethodGet, path, "", resp.Token); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestPreviewLevelIsReproducible(t *testing.T) {
	s := newTestServer(t)
	path := "/api/v1/levels/preview?width=800&height=600&seed=5"

	a := s.do(http.MethodGet, path, "", "")
	b := s.do(http.MethodGet, path, "", "")
	if a.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", a.Code, a.Body.String())
	}
	if a.Body.String() != b.Body.String() {
		t.Error("same seed returned different levels")
	}

	var body struct {
		Level game.Level `json:"level"`
	}
	json.Unmarshal(a.Body.Bytes(), &body)
	if body.Level.RequestedHoles != 32 || len(body.Level.Walls) != 5 {
		t.Errorf("requested=%d walls=%d", body.Level.RequestedHoles, len(body.Level.Walls))
	}

	for _, bad := range []string{"?width=800", "?width=0&height=600", "?width=800&height=600&seed=-1", "?width=1e12&height=1e12", "?width=Inf&height=600"} {
		if w := s.do(http.MethodGet, "/api/v1/levels/preview"+bad, "", ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", bad, w.Code)
		}
	}
}

// readUntil reads websocket messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg["type"] == typ {
			return msg
		}
	}
}

func TestWebSocketPlayThrough(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	resp := s.create(t, `{"width":800,"height":600,"seed":3}`)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + resp.SessionID + "/ws?token=" + resp.Token

	if _, _, err := websocket.DefaultDialer.Dial(url+"x", nil); err == nil {
		t.Fatal("dial with a bad token succeeded")
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readUntil(t, conn, "frame")
	if frame := first["frame"].(map[string]interface{}); frame["status"] != "ready" {
		t.Errorf("initial status = %v", frame["status"])
	}

	conn.WriteJSON(map[string]interface{}{"type": "start", "data": map[string]interface{}{"orientation_gate": true}})
	readUntil(t, conn, "request_orientation_permission")
	conn.WriteJSON(map[string]interface{}{"type": "orientation_permission", "data": map[string]interface{}{"state": "denied"}})

	sel := readUntil(t, conn, "input_selected")["selection"].(map[string]interface{})
	if sel["kind"] != "joystick" || sel["permission"] != "denied" {
		t.Errorf("selection = %v", sel)
	}

	conn.WriteJSON(map[string]interface{}{"type": "retry"})
	errMsg := readUntil(t, conn, "error")
	if !strings.Contains(errMsg["message"].(string), "invalid state transition") {
		t.Errorf("retry while playing error = %v", errMsg["message"])
	}

	conn.WriteJSON(map[string]interface{}{"type": "bogus"})
	if msg := readUntil(t, conn, "error"); msg["message"] != "Unknown message type" {
		t.Errorf("unknown message error = %v", msg["message"])
	}
}
