package recorder

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
)

// Options describe the session the generated code connects to.
type Options struct {
	ServerURL    string
	Capabilities map[string]interface{}
}

// Generator renders recorded actions as a runnable script.
type Generator func(actions []Action, opts Options) string

// Frameworks lists the supported client frameworks.
var Frameworks = map[string]Generator{
	"js":     GenerateJS,
	"python": GeneratePython,
}

// FrameworkNames returns the supported framework names, sorted.
func FrameworkNames() []string {
	names := make([]string, 0, len(Frameworks))
	for name := range Frameworks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate renders actions for framework. JavaScript output is compiled
// before it is returned so a broken literal never reaches the user.
func Generate(framework string, actions []Action, opts Options) (string, error) {
	gen, ok := Frameworks[framework]
	if !ok {
		return "", core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown framework %q (supported: %s)",
			framework, strings.Join(FrameworkNames(), ", ")))
	}
	code := gen(actions, opts)
	if framework == "js" {
		if _, err := goja.Compile("recording.js", code, false); err != nil {
			return "", fmt.Errorf("generated script does not compile: %w", err)
		}
	}
	return code, nil
}

// GenerateJS renders a WebdriverIO script.
func GenerateJS(actions []Action, opts Options) string {
	var b strings.Builder
	host, port, path := splitServerURL(opts.ServerURL)

	b.WriteString("// Requires the webdriverio client library\n")
	b.WriteString("// (npm install --save webdriverio)\n")
	b.WriteString("// Then paste this into a .js file and run with Node.js\n\n")
	b.WriteString("const wdio = require('webdriverio');\n\n")
	b.WriteString("async function main () {\n")
	fmt.Fprintf(&b, "  const caps = %s;\n", jsLiteral(opts.Capabilities))
	b.WriteString("  const driver = await wdio.remote({\n")
	b.WriteString("    protocol: \"http\",\n")
	fmt.Fprintf(&b, "    hostname: %s,\n", jsLiteral(host))
	fmt.Fprintf(&b, "    port: %d,\n", port)
	fmt.Fprintf(&b, "    path: %s,\n", jsLiteral(path))
	b.WriteString("    capabilities: caps\n")
	b.WriteString("  });\n")

	for _, a := range actions {
		switch a.Kind {
		case KindFind:
			fmt.Fprintf(&b, "  const %s = await driver.$(await driver.findElement(%s, %s));\n",
				a.Element, jsLiteral(a.Strategy), jsLiteral(a.Value))
		case KindClick:
			fmt.Fprintf(&b, "  await %s.click();\n", a.Element)
		case KindSendKeys:
			fmt.Fprintf(&b, "  await %s.addValue(%s);\n", a.Element, jsLiteral(a.Text))
		case KindClear:
			fmt.Fprintf(&b, "  await %s.clearValue();\n", a.Element)
		case KindTap:
			fmt.Fprintf(&b, "  await driver.performActions(%s);\n", jsLiteral(pointerActions(a.X, a.Y, a.X, a.Y, 0)))
			b.WriteString("  await driver.releaseActions();\n")
		case KindSwipe:
			fmt.Fprintf(&b, "  await driver.performActions(%s);\n",
				jsLiteral(pointerActions(a.X, a.Y, a.EndX, a.EndY, a.Duration)))
			b.WriteString("  await driver.releaseActions();\n")
		case KindMethod:
			args := make([]string, len(a.Args))
			for i, arg := range a.Args {
				args[i] = jsLiteral(arg)
			}
			fmt.Fprintf(&b, "  await driver.%s(%s);\n", a.Method, strings.Join(args, ", "))
		}
	}

	b.WriteString("  await driver.deleteSession();\n")
	b.WriteString("}\n\n")
	b.WriteString("main().catch(console.log);\n")
	return b.String()
}

// GeneratePython renders an Appium Python client script.
func GeneratePython(actions []Action, opts Options) string {
	var b strings.Builder
	serverURL := opts.ServerURL
	if serverURL == "" {
		serverURL = "http://127.0.0.1:4723"
	}

	b.WriteString("# This sample code uses the Appium python client v2\n")
	b.WriteString("# pip install Appium-Python-Client\n")
	b.WriteString("# Then you can paste this into a file and simply run with Python\n\n")
	b.WriteString("from appium import webdriver\n")
	b.WriteString("from appium.options.common.base import AppiumOptions\n\n")
	b.WriteString("options = AppiumOptions()\n")
	fmt.Fprintf(&b, "options.load_capabilities(%s)\n\n", pyLiteral(opts.Capabilities))
	fmt.Fprintf(&b, "driver = webdriver.Remote(%s, options=options)\n\n", pyLiteral(serverURL))

	for _, a := range actions {
		switch a.Kind {
		case KindFind:
			fmt.Fprintf(&b, "%s = driver.find_element(by=%s, value=%s)\n",
				a.Element, pyLiteral(a.Strategy), pyLiteral(a.Value))
		case KindClick:
			fmt.Fprintf(&b, "%s.click()\n", a.Element)
		case KindSendKeys:
			fmt.Fprintf(&b, "%s.send_keys(%s)\n", a.Element, pyLiteral(a.Text))
		case KindClear:
			fmt.Fprintf(&b, "%s.clear()\n", a.Element)
		case KindTap:
			fmt.Fprintf(&b, "driver.tap([(%d, %d)])\n", a.X, a.Y)
		case KindSwipe:
			fmt.Fprintf(&b, "driver.swipe(%d, %d, %d, %d, %d)\n", a.X, a.Y, a.EndX, a.EndY, a.Duration)
		case KindMethod:
			args := make([]string, len(a.Args))
			for i, arg := range a.Args {
				args[i] = pyLiteral(arg)
			}
			fmt.Fprintf(&b, "driver.%s(%s)\n", snakeCase(a.Method), strings.Join(args, ", "))
		}
	}

	b.WriteString("\ndriver.quit()\n")
	return b.String()
}

func pointerActions(x1, y1, x2, y2, durationMs int) []interface{} {
	moves := []interface{}{
		map[string]interface{}{"type": "pointerMove", "duration": 0, "x": x1, "y": y1},
		map[string]interface{}{"type": "pointerDown", "button": 0},
	}
	if x1 != x2 || y1 != y2 || durationMs > 0 {
		moves = append(moves, map[string]interface{}{"type": "pointerMove", "duration": durationMs, "x": x2, "y": y2})
	} else {
		moves = append(moves, map[string]interface{}{"type": "pause", "duration": 100})
	}
	moves = append(moves, map[string]interface{}{"type": "pointerUp", "button": 0})
	return []interface{}{map[string]interface{}{
		"type":       "pointer",
		"id":         "finger1",
		"parameters": map[string]interface{}{"pointerType": "touch"},
		"actions":    moves,
	}}
}

func splitServerURL(raw string) (string, int, string) {
	host, port, path := "127.0.0.1", 4723, "/"
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return host, port, path
	}
	if h := u.Hostname(); h != "" {
		host = h
	}
	if p, err := strconv.Atoi(u.Port()); err == nil {
		port = p
	}
	if u.Path != "" {
		path = u.Path
	}
	return host, port, path
}

// jsLiteral renders v as JSON, which is valid JavaScript.
func jsLiteral(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok && m == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func pyLiteral(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		data, _ := json.Marshal(val)
		return string(data)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = pyLiteral(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = pyLiteral(k) + ": " + pyLiteral(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return pyLiteral(fmt.Sprint(val))
	}
}

// snakeCase converts a client method name ("getPageSource") to the Python
// client spelling ("get_page_source").
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
