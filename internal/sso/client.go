// Package sso implements the client for the external single-sign-on
// validation service. The login relay hands it the sso id posted by the
// frontend and gets back the validated user's remote identity.
package sso

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mentornet/apiserver/config"
)

var (
	// ErrRejected is returned when the validation service answered but
	// rejected the sso id (an explicit error payload).
	ErrRejected = errors.New("sso validation rejected")

	// ErrUnavailable is returned when the validation service could not be
	// reached or answered with garbage.
	ErrUnavailable = errors.New("sso validation service unavailable")
)

const getUserMethod = "GetUser"

// User is the validated identity returned by the SSO service.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is a JSON-RPC client for the SSO validation service.
type Client struct {
	url               string
	communicationsKey string
	httpClient        *http.Client
}

// NewClient constructs an SSO client from config.
func NewClient(cfg config.SSOConfig) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("sso url is required")
	}
	if strings.TrimSpace(cfg.CommunicationsKey) == "" {
		return nil, errors.New("sso communications key is required")
	}

	return &Client{
		url:               cfg.URL,
		communicationsKey: cfg.CommunicationsKey,
		httpClient:        &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type rpcRequest struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	JSONRPC string `json:"jsonrpc"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result *User     `json:"result"`
	Error  *rpcError `json:"error"`
}

// Validate exchanges an sso id for the validated user identity.
func (c *Client) Validate(ctx context.Context, ssoID string) (User, error) {
	body, err := json.Marshal(rpcRequest{
		ID:      newRequestID(),
		Method:  getUserMethod,
		Params:  []any{c.communicationsKey, ssoID},
		JSONRPC: "2.0",
	})
	if err != nil {
		return User{}, fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return User{}, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if decoded.Error != nil {
		return User{}, fmt.Errorf("%w: %s (code %d)", ErrRejected, decoded.Error.Message, decoded.Error.Code)
	}
	if decoded.Result == nil || strings.TrimSpace(decoded.Result.ID) == "" {
		return User{}, fmt.Errorf("%w: missing result", ErrUnavailable)
	}

	return *decoded.Result, nil
}

func newRequestID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
