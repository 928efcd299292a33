package appium

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
)

// route describes how one client method maps onto the Appium HTTP API.
type route struct {
	verb string // HTTP method
	path string // relative to the session path; "" is the session itself
	body func(c *Client, args []interface{}) (interface{}, error)
}

// routes is keyed by the method names used in the action catalog.
var routes = map[string]route{
	// Device
	"executeScript":      {"POST", "/execute/sync", executeScriptBody},
	"startActivity":      {"POST", "/appium/device/start_activity", fields("appPackage", "appActivity", "appWaitPackage", "intentAction", "intentCategory", "intentFlags", "optionalIntentArguments", "dontStopAppOnReset")},
	"getCurrentActivity": {"GET", "/appium/device/current_activity", nil},
	"getCurrentPackage":  {"GET", "/appium/device/current_package", nil},

	"installApp":     {"POST", "/appium/device/install_app", fields("appPath")},
	"isAppInstalled": {"POST", "/appium/device/app_installed", appIDBody},
	"background":     {"POST", "/appium/app/background", fields("seconds")},
	"activateApp":    {"POST", "/appium/device/activate_app", appIDBody},
	"terminateApp":   {"POST", "/appium/device/terminate_app", appIDBody},
	"resetApp":       {"POST", "/appium/app/reset", nil},
	"removeApp":      {"POST", "/appium/device/remove_app", appIDBody},
	"getStrings":     {"POST", "/appium/app/strings", fields("language", "stringFile")},

	"getClipboard": {"POST", "/appium/device/get_clipboard", nil},
	"setClipboard": {"POST", "/appium/device/set_clipboard", setClipboardBody},

	"pushFile":   {"POST", "/appium/device/push_file", pushFileBody},
	"pullFile":   {"POST", "/appium/device/pull_file", fields("path")},
	"pullFolder": {"POST", "/appium/device/pull_folder", fields("path")},

	"shake":        {"POST", "/appium/device/shake", nil},
	"lock":         {"POST", "/appium/device/lock", fields("seconds")},
	"unlock":       {"POST", "/appium/device/unlock", nil},
	"isLocked":     {"POST", "/appium/device/is_locked", nil},
	"rotateDevice": {"POST", "/appium/device/rotate", fields("x", "y", "radius", "rotation", "touchCount", "duration")},

	"pressKeyCode":     {"POST", "/appium/device/press_keycode", fields("keycode", "metastate", "flags")},
	"longPressKeyCode": {"POST", "/appium/device/long_press_keycode", fields("keycode", "metastate", "flags")},
	"hideKeyboard":     {"POST", "/appium/device/hide_keyboard", nil},
	"isKeyboardShown":  {"GET", "/appium/device/is_keyboard_shown", nil},

	"toggleAirplaneMode":     {"POST", "/appium/device/toggle_airplane_mode", nil},
	"toggleData":             {"POST", "/appium/device/toggle_data", nil},
	"toggleWiFi":             {"POST", "/appium/device/toggle_wifi", nil},
	"toggleLocationServices": {"POST", "/appium/device/toggle_location_services", nil},
	"sendSMS":                {"POST", "/appium/device/send_sms", fields("phoneNumber", "message")},
	"gsmCall":                {"POST", "/appium/device/gsm_call", fields("phoneNumber", "action")},
	"gsmSignal":              {"POST", "/appium/device/gsm_signal", fields("signalStrength")},
	"gsmVoice":               {"POST", "/appium/device/gsm_voice", fields("state")},

	"getPerformanceData":      {"POST", "/appium/getPerformanceData", fields("packageName", "dataType", "dataReadTimeout")},
	"getPerformanceDataTypes": {"POST", "/appium/performanceData/types", nil},

	"touchId":             {"POST", "/appium/simulator/touch_id", fields("match")},
	"toggleEnrollTouchId": {"POST", "/appium/simulator/toggle_touch_id_enrollment", fields("enabled")},

	"openNotifications": {"POST", "/appium/device/open_notifications", nil},
	"getDeviceTime":     {"GET", "/appium/device/system_time", nil},
	"fingerPrint":       {"POST", "/appium/device/finger_print", fields("fingerprintId")},

	// Session
	"getSession":     {"GET", "", nil},
	"setTimeouts":    {"POST", "/timeouts", fields("implicit", "pageLoad", "script")},
	"getOrientation": {"GET", "/orientation", nil},
	"setOrientation": {"POST", "/orientation", setOrientationBody},
	"getGeoLocation": {"GET", "/location", nil},
	"setGeoLocation": {"POST", "/location", setGeoLocationBody},
	"getLogTypes":    {"GET", "/se/log/types", nil},
	"getLogs":        {"POST", "/se/log", fields("type")},
	"updateSettings": {"POST", "/appium/settings", updateSettingsBody},
	"getSettings":    {"GET", "/appium/settings", nil},

	// Web
	"navigateTo": {"POST", "/url", fields("url")},
	"getUrl":     {"GET", "/url", nil},
	"back":       {"POST", "/back", nil},
	"forward":    {"POST", "/forward", nil},
	"refresh":    {"POST", "/refresh", nil},

	// Context
	"getContext":       {"GET", "/context", nil},
	"getContexts":      {"GET", "/contexts", nil},
	"switchContext":    {"POST", "/context", fields("name")},
	"getWindowHandle":  {"GET", "/window", nil},
	"closeWindow":      {"DELETE", "/window", nil},
	"switchToWindow":   {"POST", "/window", fields("handle")},
	"getWindowHandles": {"GET", "/window/handles", nil},
	"createWindow":     {"POST", "/window/new", fields("type")},
}

// Supports reports whether Execute knows the method.
func (c *Client) Supports(method string) bool {
	_, ok := routes[method]
	return ok
}

// Execute runs a catalog method with already typed arguments and returns the
// "value" of the response.
func (c *Client) Execute(method string, args []interface{}) (interface{}, error) {
	r, ok := routes[method]
	if !ok {
		return nil, core.ErrUnsupportedCommand.WithDetails(map[string]interface{}{"method": method})
	}
	if c.sessionID == "" {
		return nil, core.ErrNoSession
	}

	var body interface{}
	if r.body != nil {
		b, err := r.body(c, args)
		if err != nil {
			return nil, core.ErrInvalidArgument.WithMessage(method).WithCause(err)
		}
		body = b
	} else if r.verb == "POST" {
		body = map[string]interface{}{}
	}

	resp, err := c.request(r.verb, c.sessionPath()+r.path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return resp["value"], nil
}

func arg(args []interface{}, i int) interface{} {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func argString(args []interface{}, i int) string {
	s, _ := arg(args, i).(string)
	return s
}

// fields maps positional arguments onto named body fields; nil arguments are omitted.
func fields(names ...string) func(*Client, []interface{}) (interface{}, error) {
	return func(_ *Client, args []interface{}) (interface{}, error) {
		body := make(map[string]interface{}, len(names))
		for i, name := range names {
			if v := arg(args, i); v != nil {
				body[name] = v
			}
		}
		return body, nil
	}
}

func appIDBody(c *Client, args []interface{}) (interface{}, error) {
	key := "appId"
	if c.platform == "ios" {
		key = "bundleId"
	}
	return map[string]interface{}{key: argString(args, 0)}, nil
}

func executeScriptBody(_ *Client, args []interface{}) (interface{}, error) {
	scriptArgs := []interface{}{}
	if raw := strings.TrimSpace(argString(args, 1)); raw != "" {
		var parsed interface{}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("jsonArgument: %w", err)
		}
		if list, ok := parsed.([]interface{}); ok {
			scriptArgs = list
		} else {
			scriptArgs = []interface{}{parsed}
		}
	}
	return map[string]interface{}{
		"script": argString(args, 0),
		"args":   scriptArgs,
	}, nil
}

func setClipboardBody(_ *Client, args []interface{}) (interface{}, error) {
	contentType := argString(args, 1)
	if contentType == "" {
		contentType = "plaintext"
	}
	body := map[string]interface{}{
		"content":     base64.StdEncoding.EncodeToString([]byte(argString(args, 0))),
		"contentType": contentType,
	}
	if label := argString(args, 2); label != "" {
		body["label"] = label
	}
	return body, nil
}

func pushFileBody(_ *Client, args []interface{}) (interface{}, error) {
	return map[string]interface{}{
		"path": argString(args, 0),
		"data": base64.StdEncoding.EncodeToString([]byte(argString(args, 1))),
	}, nil
}

func setOrientationBody(_ *Client, args []interface{}) (interface{}, error) {
	return map[string]interface{}{
		"orientation": strings.ToUpper(argString(args, 0)),
	}, nil
}

func setGeoLocationBody(_ *Client, args []interface{}) (interface{}, error) {
	location := make(map[string]interface{}, 3)
	for i, name := range []string{"latitude", "longitude", "altitude"} {
		v := arg(args, i)
		if v == nil {
			v = 0
		}
		location[name] = v
	}
	return map[string]interface{}{"location": location}, nil
}

func updateSettingsBody(_ *Client, args []interface{}) (interface{}, error) {
	var settings map[string]interface{}
	if err := json.Unmarshal([]byte(argString(args, 0)), &settings); err != nil {
		return nil, fmt.Errorf("settingsJson: %w", err)
	}
	return map[string]interface{}{"settings": settings}, nil
}
