package sso

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mentornet/apiserver/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.SSOConfig{
		URL:               srv.URL,
		CommunicationsKey: "comms-key",
		Timeout:           2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestValidate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != getUserMethod {
			t.Errorf("unexpected method %q", req.Method)
		}
		if len(req.Params) != 2 || req.Params[0] != "comms-key" || req.Params[1] != "sso-123" {
			t.Errorf("unexpected params %v", req.Params)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"result":  map[string]string{"id": "remote-7", "name": "Maija"},
		})
	})

	user, err := client.Validate(context.Background(), "sso-123")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user.ID != "remote-7" || user.Name != "Maija" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestValidateRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": -32001, "message": "invalid sso id"},
		})
	})

	_, err := client.Validate(context.Background(), "bad-id")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestValidateMissingResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0"})
	})

	_, err := client.Validate(context.Background(), "sso-123")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
