package appium

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devicelab-dev/maestro-inspector/pkg/actions"
	"github.com/devicelab-dev/maestro-inspector/pkg/core"
)

type recordedRequest struct {
	method string
	path   string
	body   map[string]interface{}
}

func newRecordingServer(t *testing.T, value interface{}) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
		writeJSON(w, map[string]interface{}{"value": value})
	}))
	t.Cleanup(server.Close)
	return server, &reqs
}

func TestRoutes_CoverCatalog(t *testing.T) {
	catalog, err := actions.Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	client := NewClient("http://unused")
	for _, method := range catalog.Methods() {
		if !client.Supports(method) {
			t.Errorf("no route for catalog method %s", method)
		}
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		args     []interface{}
		platform string
		wantVerb string
		wantPath string
		wantBody map[string]interface{}
	}{
		{
			name:     "no args GET",
			method:   "getCurrentActivity",
			wantVerb: "GET",
			wantPath: "/session/s/appium/device/current_activity",
		},
		{
			name:     "positional fields",
			method:   "pressKeyCode",
			args:     []interface{}{4.0, nil, 0.0},
			wantVerb: "POST",
			wantPath: "/session/s/appium/device/press_keycode",
			wantBody: map[string]interface{}{"keycode": 4.0, "flags": 0.0},
		},
		{
			name:     "android app id",
			method:   "activateApp",
			args:     []interface{}{"com.example"},
			platform: "android",
			wantVerb: "POST",
			wantPath: "/session/s/appium/device/activate_app",
			wantBody: map[string]interface{}{"appId": "com.example"},
		},
		{
			name:     "ios bundle id",
			method:   "terminateApp",
			args:     []interface{}{"com.example"},
			platform: "ios",
			wantVerb: "POST",
			wantPath: "/session/s/appium/device/terminate_app",
			wantBody: map[string]interface{}{"bundleId": "com.example"},
		},
		{
			name:     "orientation upper-cased",
			method:   "setOrientation",
			args:     []interface{}{"landscape"},
			wantVerb: "POST",
			wantPath: "/session/s/orientation",
			wantBody: map[string]interface{}{"orientation": "LANDSCAPE"},
		},
		{
			name:     "session itself",
			method:   "getSession",
			wantVerb: "GET",
			wantPath: "/session/s",
		},
		{
			name:     "delete window",
			method:   "closeWindow",
			wantVerb: "DELETE",
			wantPath: "/session/s/window",
		},
		{
			name:     "post without args sends empty object",
			method:   "shake",
			wantVerb: "POST",
			wantPath: "/session/s/appium/device/shake",
			wantBody: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, reqs := newRecordingServer(t, "ok")
			client := NewClient(server.URL)
			client.Attach("s", tt.platform)

			value, err := client.Execute(tt.method, tt.args)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if value != "ok" {
				t.Errorf("value = %v, want ok", value)
			}
			if len(*reqs) != 1 {
				t.Fatalf("Expected 1 request, got %d", len(*reqs))
			}
			got := (*reqs)[0]
			if got.method != tt.wantVerb || got.path != tt.wantPath {
				t.Errorf("request = %s %s, want %s %s", got.method, got.path, tt.wantVerb, tt.wantPath)
			}
			if tt.wantBody != nil {
				if len(got.body) != len(tt.wantBody) {
					t.Errorf("body = %v, want %v", got.body, tt.wantBody)
				}
				for k, v := range tt.wantBody {
					if got.body[k] != v {
						t.Errorf("body[%s] = %v, want %v", k, got.body[k], v)
					}
				}
			}
		})
	}
}

func TestExecute_ScriptArguments(t *testing.T) {
	server, reqs := newRecordingServer(t, nil)
	client := NewClient(server.URL)
	client.Attach("s", "android")

	if _, err := client.Execute("executeScript", []interface{}{"mobile: shell", `{"command":"ls"}`}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	body := (*reqs)[0].body
	if body["script"] != "mobile: shell" {
		t.Errorf("script = %v", body["script"])
	}
	scriptArgs, ok := body["args"].([]interface{})
	if !ok || len(scriptArgs) != 1 {
		t.Fatalf("args = %v", body["args"])
	}

	if _, err := client.Execute("executeScript", []interface{}{"mobile: shell", "{not json"}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestExecute_GeoLocationAndSettings(t *testing.T) {
	server, reqs := newRecordingServer(t, nil)
	client := NewClient(server.URL)
	client.Attach("s", "android")

	if _, err := client.Execute("setGeoLocation", []interface{}{52.5, 13.4, nil}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	location := (*reqs)[0].body["location"].(map[string]interface{})
	if location["latitude"] != 52.5 || location["longitude"] != 13.4 || location["altitude"] != 0.0 {
		t.Errorf("Unexpected location: %v", location)
	}

	if _, err := client.Execute("updateSettings", []interface{}{`{"waitForIdleTimeout": 0}`}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	settings := (*reqs)[1].body["settings"].(map[string]interface{})
	if settings["waitForIdleTimeout"] != 0.0 {
		t.Errorf("Unexpected settings: %v", settings)
	}
}

func TestExecute_Errors(t *testing.T) {
	client := NewClient("http://unused")

	if _, err := client.Execute("flyAway", nil); !errors.Is(err, core.ErrUnsupportedCommand) {
		t.Errorf("Expected ErrUnsupportedCommand, got %v", err)
	}
	if _, err := client.Execute("getUrl", nil); !errors.Is(err, core.ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}
