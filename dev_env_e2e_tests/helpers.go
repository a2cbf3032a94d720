//go:build e2e
// +build e2e

package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// env returns the value of key or fallback when the env var is unset.
func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// requireStack skips the test when the scheduler stack is not reachable at
// baseURL, and fails it when the stack is up but does not report healthy
// within the timeout. Tests stay runnable on machines without the dev stack.
func requireStack(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/health")
	if err != nil {
		t.Skipf("service %s unreachable: %v", baseURL, err)
	}
	_ = resp.Body.Close()

	deadline := time.Now().Add(timeout)
	for {
		resp, err := http.Get(baseURL + "/api/health")
		if err == nil {
			var body struct {
				Status string `json:"status"`
			}
			decodeErr := json.NewDecoder(resp.Body).Decode(&body)
			_ = resp.Body.Close()
			if decodeErr == nil && body.Status == "healthy" {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("scheduler-service not healthy within %s", timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// mustJSON fails the test unless resp carries a 2xx JSON body decodable into v.
func mustJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if resp == nil {
		t.Fatalf("nil response")
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.Fatalf("http %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode json: %v\n%s", err, body)
	}
}
