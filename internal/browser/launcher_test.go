//go:build unix

// internal/browser/launcher_test.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// devtools is a minimal DevTools endpoint: enough protocol for chromedp to
// attach to one tab and run setup commands
type devtools struct {
	server  *httptest.Server
	pidFile string

	mu      sync.Mutex
	methods []string
}

type cdpMessage struct {
	ID        int64           `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

const fakeTargetInfo = `{"targetId":"T1","type":"page","title":"","url":"about:blank","attached":false,"canAccessOpener":false}`

var fakeResults = map[string]string{
	"Target.getTargets":                     `{"targetInfos":[` + fakeTargetInfo + `]}`,
	"Target.createTarget":                   `{"targetId":"T1"}`,
	"Target.attachToTarget":                 `{"sessionId":"S1"}`,
	"Page.getFrameTree":                     `{"frameTree":{"frame":{"id":"F1","loaderId":"L1","url":"about:blank","securityOrigin":"://","mimeType":"text/html"}}}`,
	"Page.addScriptToEvaluateOnNewDocument": `{"identifier":"1"}`,
	"Runtime.evaluate":                      `{"result":{"type":"string","value":"ok"}}`,
	"Emulation.setDeviceMetricsOverride":    `{}`,
	"Target.setDiscoverTargets":             `{}`,
	"Browser.close":                         `{}`,
	"Browser.getVersion":                    `{"protocolVersion":"1.3","product":"HeadlessChrome/124.0.0.0"}`,
}

func newDevtools(t *testing.T) *devtools {
	t.Helper()
	d := &devtools{pidFile: filepath.Join(t.TempDir(), "browser.pid")}
	d.server = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.server.Close)
	return d
}

func (d *devtools) url() string {
	return "ws://" + strings.TrimPrefix(d.server.URL, "http://") + "/devtools/browser/fake"
}

func (d *devtools) seen(method string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range d.methods {
		if m == method {
			return true
		}
	}
	return false
}

func (d *devtools) serve(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return
	}
	defer conn.Close()

	send := func(msg cdpMessage) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return wsutil.WriteServerMessage(conn, ws.OpText, data)
	}

	for {
		data, err := wsutil.ReadClientText(conn)
		if err != nil {
			return
		}
		var req cdpMessage
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}

		d.mu.Lock()
		d.methods = append(d.methods, req.Method)
		d.mu.Unlock()

		result, ok := fakeResults[req.Method]
		if !ok {
			result = `{}`
		}
		if err := send(cdpMessage{ID: req.ID, SessionID: req.SessionID, Result: json.RawMessage(result)}); err != nil {
			return
		}

		switch req.Method {
		case "Target.setDiscoverTargets":
			created := cdpMessage{
				Method: "Target.targetCreated",
				Params: json.RawMessage(`{"targetInfo":` + fakeTargetInfo + `}`),
			}
			if err := send(created); err != nil {
				return
			}
		case "Browser.close":
			// A real browser exits once it has answered
			if pid, err := readPID(d.pidFile); err == nil {
				_ = syscall.Kill(pid, syscall.SIGTERM)
			}
			return
		}
	}
}

// fakeBrowser writes an executable that records its pid, optionally
// announces the DevTools endpoint, and then idles like a browser would
func fakeBrowser(t *testing.T, pidFile, wsURL string) string {
	t.Helper()
	announce := ""
	if wsURL != "" {
		announce = fmt.Sprintf("echo 'DevTools listening on %s' >&2\n", wsURL)
	}
	script := fmt.Sprintf("#!/bin/sh\necho $$ > '%s'\n%sexec sleep 60\n", pidFile, announce)

	path := filepath.Join(t.TempDir(), "fake-chrome")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func alive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

func TestChromeLauncher_SessionOutlivesLaunch(t *testing.T) {
	devtools := newDevtools(t)
	config := DefaultBrowserConfig()
	config.ExecPath = fakeBrowser(t, devtools.pidFile, devtools.url())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	session, err := NewChromeLauncher(config, nil).Launch(ctx)
	// The caller's deadline covers startup only
	cancel()
	require.NoError(t, err)

	pid, err := readPID(devtools.pidFile)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, alive(pid), "browser must keep running after Launch returns")
	assert.True(t, devtools.seen("Page.addScriptToEvaluateOnNewDocument"), "stealth script must be installed")
	assert.True(t, devtools.seen("Emulation.setDeviceMetricsOverride"), "viewport must be emulated")

	var out string
	require.NoError(t, session.Evaluate(context.Background(), `"ok"`, &out),
		"session must still accept commands")
	assert.Equal(t, "ok", out)

	require.NoError(t, session.Close())
	assert.False(t, alive(pid), "Close must stop the browser process")
	assert.NoError(t, session.Close(), "close must be idempotent")
}

func TestChromeLauncher_StartupBoundedByCaller(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "browser.pid")
	config := DefaultBrowserConfig()
	// Never announces a DevTools endpoint
	config.ExecPath = fakeBrowser(t, pidFile, "")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	session, err := NewChromeLauncher(config, nil).Launch(ctx)
	require.Error(t, err)
	assert.Nil(t, session)
	assert.Less(t, time.Since(start), 10*time.Second)

	if pid, err := readPID(pidFile); err == nil {
		assert.False(t, alive(pid), "aborted start must not leave a browser behind")
	}
}
