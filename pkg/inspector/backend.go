// Package inspector is the headless inspector shell: it keeps the current UI
// snapshot, resolves selections into locators and forwards commands to the
// automation backend.
package inspector

// Backend is the remote automation server as seen by a session.
// appium.Client and mock.Driver implement it.
type Backend interface {
	Ping() error
	Source() (string, error)
	Screenshot() ([]byte, error)

	// Execute runs a catalog method by name.
	Execute(method string, args []interface{}) (interface{}, error)

	FindElement(strategy, value string) (string, error)
	ClickElement(elementID string) error
	ClearElement(elementID string) error
	SendKeysToElement(elementID, text string) error

	Tap(x, y int) error
	Swipe(startX, startY, endX, endY, durationMs int) error
}
