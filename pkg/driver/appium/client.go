// Package appium talks to an Appium server over the W3C WebDriver protocol.
package appium

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Client handles HTTP communication with Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	platform  string // ios, android
}

// NewClient creates a new Appium client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for install/screenshot
		},
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return core.ErrServerUnreachable.WithCause(err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}

	if caps, ok := value["capabilities"].(map[string]interface{}); ok {
		if platform, ok := caps["platformName"].(string); ok {
			c.platform = strings.ToLower(platform)
		}
	}
	return nil
}

// Attach reuses an existing session instead of creating one.
func (c *Client) Attach(sessionID, platform string) {
	c.sessionID = sessionID
	c.platform = strings.ToLower(platform)
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the active session id, or "".
func (c *Client) SessionID() string {
	return c.sessionID
}

// Platform returns the platform (ios/android).
func (c *Client) Platform() string {
	return c.platform
}

// Ping checks that the session is still alive.
func (c *Client) Ping() error {
	if c.sessionID == "" {
		return core.ErrNoSession
	}
	_, err := c.get(c.sessionPath())
	return err
}

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Element Operations

// FindElement finds a single element.
func (c *Client) FindElement(strategy, value string) (string, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(c.sessionPath()+"/element", body)
	if err != nil {
		return "", core.ErrElementNotFound.WithCause(err)
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", core.ErrElementNotFound
	}

	id := extractElementID(elemValue)
	if id == "" {
		return "", core.ErrElementNotFound
	}
	return id, nil
}

// ClickElement clicks an element using WebDriver standard endpoint.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", nil)
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", nil)
	return err
}

// SendKeysToElement types text into an element.
func (c *Client) SendKeysToElement(elementID, text string) error {
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

// Touch/Gesture Operations (W3C Actions)

func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Tap performs a tap at coordinates using W3C touch actions.
func (c *Client) Tap(x, y int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// Swipe performs a swipe gesture.
func (c *Client) Swipe(startX, startY, endX, endY, durationMs int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": startX, "y": startY, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pointerMove", "duration": durationMs, "x": endX, "y": endY, "origin": "viewport"},
		{"type": "pointerUp", "button": 0},
	})
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("nil response from server")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errMsg, ok := errValue["message"].(string); ok {
			if errType, ok := errValue["error"].(string); ok {
				return result, fmt.Errorf("%s: %s", errType, errMsg)
			}
		}
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
