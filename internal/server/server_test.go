package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackzampolin/toccata/internal/home"
	"github.com/jackzampolin/toccata/internal/server/endpoints"
)

func startTestServer(t *testing.T, port string) (*Server, context.CancelFunc, chan error) {
	t.Helper()

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host: "127.0.0.1",
		Port: port,
		Home: h,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverCtx, cancel := context.WithCancel(context.Background())
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%s", port)
	if err := waitForServer(serverCtx, baseURL, 10*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}

	return srv, cancel, serverErr
}

func TestServer_Lifecycle(t *testing.T) {
	srv, cancel, serverErr := startTestServer(t, "18090")
	baseURL := "http://127.0.0.1:18090"

	t.Run("health_endpoint", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/health")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
	})

	t.Run("status_endpoint", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/status")
		if err != nil {
			t.Fatalf("status check failed: %v", err)
		}
		defer resp.Body.Close()

		var status endpoints.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if status.Server != "running" {
			t.Errorf("status.Server = %q, want %q", status.Server, "running")
		}
		if status.Database == "not_initialized" {
			t.Error("status.Database not initialized after Start()")
		}
	})

	t.Run("runs_list_empty", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/runs")
		if err != nil {
			t.Fatalf("runs list failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("runs list status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var list endpoints.RunsListResponse
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(list.Runs) != 0 {
			t.Errorf("got %d runs on fresh store, want 0", len(list.Runs))
		}
	})

	t.Run("run_get_not_found", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/runs/no-such-run")
		if err != nil {
			t.Fatalf("run get failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("run get status = %d, want %d", resp.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("swagger_json", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/swagger.json")
		if err != nil {
			t.Fatalf("swagger fetch failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("swagger status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var doc map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			t.Fatalf("swagger doc is not valid JSON: %v", err)
		}
		if _, ok := doc["paths"]; !ok {
			t.Error("swagger doc missing paths")
		}
	})

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
	})

	cancel()

	select {
	case err := <-serverErr:
		if err != nil {
			t.Logf("server returned error (expected during shutdown): %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down within timeout")
	}

	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown, want false")
	}
}

func TestServer_DoubleStart(t *testing.T) {
	srv, cancel, serverErr := startTestServer(t, "18091")
	defer func() {
		cancel()
		<-serverErr
	}()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()

	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should return error")
	}
}

// waitForServer polls the server until it responds or timeout.
func waitForServer(ctx context.Context, baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %s", timeout)
}
