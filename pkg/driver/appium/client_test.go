package appium

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
)

// writeJSON encodes data as JSON to the response writer.
func writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func TestClient_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session" && r.Method == "POST" {
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"sessionId": "test-session-123",
					"capabilities": map[string]interface{}{
						"platformName": "Android",
					},
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	err := client.Connect(map[string]interface{}{
		"platformName": "Android",
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if client.SessionID() != "test-session-123" {
		t.Errorf("Expected sessionID 'test-session-123', got '%s'", client.SessionID())
	}
	if client.Platform() != "android" {
		t.Errorf("Expected platform 'android', got '%s'", client.Platform())
	}
}

func TestClient_ConnectUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url)
	err := client.Connect(map[string]interface{}{})
	if !errors.Is(err, core.ErrServerUnreachable) {
		t.Errorf("Expected ErrServerUnreachable, got %v", err)
	}
}

func TestClient_ConnectMissingSessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"value": map[string]interface{}{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.Connect(map[string]interface{}{}); err == nil {
		t.Error("Expected error for missing session id")
	}
}

func TestClient_Disconnect(t *testing.T) {
	deleteCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session" && r.Method == "DELETE" {
			deleteCalled = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.Attach("test-session", "iOS")

	if err := client.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if !deleteCalled {
		t.Error("DELETE /session was not called")
	}
	if client.SessionID() != "" {
		t.Error("sessionID should be cleared after disconnect")
	}

	// Second disconnect is a no-op
	if err := client.Disconnect(); err != nil {
		t.Errorf("Second Disconnect failed: %v", err)
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session" && r.Method == "GET" {
			writeJSON(w, map[string]interface{}{"value": map[string]interface{}{}})
			return
		}
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{"error": "invalid session id", "message": "gone"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.Ping(); !errors.Is(err, core.ErrNoSession) {
		t.Errorf("Expected ErrNoSession before connect, got %v", err)
	}

	client.Attach("test-session", "android")
	if err := client.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	client.Attach("expired", "android")
	if err := client.Ping(); err == nil {
		t.Error("Expected error for expired session")
	}
}

func TestClient_Source(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/source" {
			writeJSON(w, map[string]interface{}{"value": "<hierarchy/>"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.Attach("test-session", "android")

	source, err := client.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	if source != "<hierarchy/>" {
		t.Errorf("Unexpected source: %s", source)
	}
}

func TestClient_Screenshot(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/screenshot" {
			writeJSON(w, map[string]interface{}{"value": base64.StdEncoding.EncodeToString(png)})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.Attach("test-session", "android")

	data, err := client.Screenshot()
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if string(data) != string(png) {
		t.Errorf("Unexpected screenshot bytes: %v", data)
	}
}

func TestClient_FindElement(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/element" && r.Method == "POST" {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			if gotBody["value"] == "missing" {
				writeJSON(w, map[string]interface{}{
					"value": map[string]interface{}{"error": "no such element", "message": "not found"},
				})
				return
			}
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{w3cElementKey: "elem-123"},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.Attach("test-session", "android")

	elemID, err := client.FindElement("objectName", "loginBtn")
	if err != nil {
		t.Fatalf("FindElement failed: %v", err)
	}
	if elemID != "elem-123" {
		t.Errorf("Expected element ID 'elem-123', got '%s'", elemID)
	}
	if gotBody["using"] != "objectName" || gotBody["value"] != "loginBtn" {
		t.Errorf("Unexpected request body: %v", gotBody)
	}

	_, err = client.FindElement("objectName", "missing")
	if !errors.Is(err, core.ErrElementNotFound) {
		t.Errorf("Expected ErrElementNotFound, got %v", err)
	}
}

func TestClient_ElementActions(t *testing.T) {
	calls := map[string]map[string]interface{}{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls[r.URL.Path] = body
		writeJSON(w, map[string]interface{}{"value": nil})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.Attach("s", "android")

	if err := client.ClickElement("e1"); err != nil {
		t.Fatalf("ClickElement failed: %v", err)
	}
	if err := client.ClearElement("e1"); err != nil {
		t.Fatalf("ClearElement failed: %v", err)
	}
	if err := client.SendKeysToElement("e1", "hello"); err != nil {
		t.Fatalf("SendKeysToElement failed: %v", err)
	}

	for _, path := range []string{"/session/s/element/e1/click", "/session/s/element/e1/clear", "/session/s/element/e1/value"} {
		if _, ok := calls[path]; !ok {
			t.Errorf("%s was not called", path)
		}
	}
	if calls["/session/s/element/e1/value"]["text"] != "hello" {
		t.Errorf("Unexpected send keys body: %v", calls["/session/s/element/e1/value"])
	}
}

func TestClient_TapAndSwipe(t *testing.T) {
	var bodies []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/actions" && r.Method == "POST" {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			bodies = append(bodies, body)
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.Attach("test-session", "android")

	if err := client.Tap(100, 200); err != nil {
		t.Fatalf("Tap failed: %v", err)
	}
	if err := client.Swipe(100, 800, 100, 200, 500); err != nil {
		t.Fatalf("Swipe failed: %v", err)
	}

	if len(bodies) != 2 {
		t.Fatalf("Expected 2 action calls, got %d", len(bodies))
	}
	swipe := bodies[1]["actions"].([]interface{})[0].(map[string]interface{})["actions"].([]interface{})
	move := swipe[2].(map[string]interface{})
	if move["x"] != 100.0 || move["y"] != 200.0 || move["duration"] != 500.0 {
		t.Errorf("Unexpected swipe move: %v", move)
	}
}

func TestExtractElementID(t *testing.T) {
	if id := extractElementID(map[string]interface{}{w3cElementKey: "w3c"}); id != "w3c" {
		t.Errorf("W3C id = %q", id)
	}
	if id := extractElementID(map[string]interface{}{"ELEMENT": "legacy"}); id != "legacy" {
		t.Errorf("Legacy id = %q", id)
	}
	if id := extractElementID(map[string]interface{}{}); id != "" {
		t.Errorf("Expected empty id, got %q", id)
	}
}
