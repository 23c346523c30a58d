package browserdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// binaryFor maps the --browser flag's closed set to the WebDriver binary
// that speaks for it.
var binaryFor = map[string]string{
	"chrome":  "chromedriver",
	"firefox": "geckodriver",
}

// WebDriver drives a local chromedriver/geckodriver process over the W3C
// WebDriver JSON wire protocol.
type WebDriver struct {
	cmd       *exec.Cmd
	baseURL   string
	sessionID string
	client    *http.Client
	log       zerolog.Logger
}

// NewSession launches the WebDriver binary for the named browser
// ("chrome" or "firefox"), waits for it to start listening, and opens a
// new automation session.
func NewSession(ctx context.Context, browser string, log zerolog.Logger) (*WebDriver, error) {
	binary, ok := binaryFor[browser]
	if !ok {
		return nil, fmt.Errorf("browserdriver: unsupported browser %q", browser)
	}

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("browserdriver: couldn't find a free port: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, "--port="+strconv.Itoa(port))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("browserdriver: couldn't start %s: %w", binary, err)
	}

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	d := &WebDriver{cmd: cmd, baseURL: baseURL, client: &http.Client{Timeout: 30 * time.Second}, log: log}

	if err := waitForPort(ctx, port); err != nil {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("browserdriver: %s never started listening: %w", binary, err)
	}

	sessionID, err := d.newSession(ctx)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	d.sessionID = sessionID
	return d, nil
}

type newSessionRequest struct {
	Capabilities struct {
		AlwaysMatch map[string]any `json:"alwaysMatch"`
	} `json:"capabilities"`
}

type newSessionResponse struct {
	Value struct {
		SessionID string `json:"sessionId"`
	} `json:"value"`
}

func (d *WebDriver) newSession(ctx context.Context) (string, error) {
	var req newSessionRequest
	req.Capabilities.AlwaysMatch = map[string]any{}

	var resp newSessionResponse
	if err := d.do(ctx, http.MethodPost, "/session", req, &resp); err != nil {
		return "", fmt.Errorf("browserdriver: newSession: %w", err)
	}
	return resp.Value.SessionID, nil
}

// Navigate loads url in the current session and blocks until the driver
// confirms the navigation command completed.
func (d *WebDriver) Navigate(ctx context.Context, url string) error {
	body := struct {
		URL string `json:"url"`
	}{URL: url}
	path := "/session/" + d.sessionID + "/url"
	if err := d.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("browserdriver: navigate to %s: %w", url, err)
	}
	return nil
}

// Quit ends the WebDriver session and stops the driver process: it issues
// the DELETE call and waits for it to complete before killing the process,
// rather than just killing the process and leaving the session dangling.
func (d *WebDriver) Quit(ctx context.Context) error {
	if d.sessionID == "" {
		return nil
	}
	path := "/session/" + d.sessionID
	err := d.do(ctx, http.MethodDelete, path, nil, nil)
	d.sessionID = ""
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	if err != nil {
		return fmt.Errorf("browserdriver: quit: %w", err)
	}
	return nil
}

func (d *WebDriver) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webdriver returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func waitForPort(ctx context.Context, port int) error {
	addr := "127.0.0.1:" + strconv.Itoa(port)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for %s", addr)
}
