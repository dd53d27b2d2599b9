//go:build linux

package api

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/v4lfind/v4lfind/internal/discovery"
	"github.com/v4lfind/v4lfind/internal/events"
)

func newTestServer(t *testing.T) (*Server, *events.Bus) {
	t.Helper()
	bus := events.New()
	root := t.TempDir()
	svc := discovery.NewService(bus,
		discovery.WithVideoRoot(root),
		discovery.WithMediaRoot(root),
	)
	server := NewServer(&Options{
		AuthUsername: "test",
		AuthPassword: "test",
		Discovery:    svc,
		EventBus:     bus,
		DeviceRoot:   root,
	})
	return server, bus
}

func authGet(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.SetBasicAuth("test", "test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealthEndpointNoAuth(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestVersionEndpointNoAuth(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/version")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestDevicesRequireAuth(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/devices")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestListDevicesEmpty(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp := authGet(t, ts.URL+"/api/devices")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Devices []any `json:"devices"`
		Count   int   `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 0 {
		t.Errorf("count = %d, want 0", body.Count)
	}
}

func TestGetDeviceNotFound(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp := authGet(t, ts.URL+"/api/devices/video99")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetDeviceInvalidName(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp := authGet(t, ts.URL+"/api/devices/..")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestDiscoverNoMatch(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/discover", strings.NewReader(`{"require_caps":1}`))
	if err != nil {
		t.Fatal(err)
	}
	req.SetBasicAuth("test", "test")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	bus := events.New()
	root := t.TempDir()
	server := NewServer(&Options{
		Discovery:         discovery.NewService(bus, discovery.WithVideoRoot(root)),
		EventBus:          bus,
		PrometheusHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/devices", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected permissive CORS origin header")
	}
}

func TestSSEConnectionAndEvents(t *testing.T) {
	server, bus := newTestServer(t)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	credentials := base64.StdEncoding.EncodeToString([]byte("test:test"))
	sseURL := fmt.Sprintf("%s/api/events?auth=%s", ts.URL, credentials)

	resp, err := http.Get(sseURL)
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	reader := bufio.NewReader(resp.Body)
	lines := make(chan string, 100)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- strings.TrimSpace(line)
		}
	}()

	waitFor := func(substr string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", substr)
				}
				if strings.Contains(line, substr) {
					return
				}
			case <-deadline:
				t.Fatalf("timeout waiting for %q", substr)
			}
		}
	}

	// Initial connection confirmation arrives first.
	waitFor("stream-connected")

	// A published event shows up on the stream.
	bus.Publish(events.DeviceFoundEvent{
		Path:      "/dev/video0",
		Driver:    "uvcvideo",
		Timestamp: time.Now().Format(time.RFC3339),
	})
	waitFor("/dev/video0")
}
