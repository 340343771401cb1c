// Package authority implements the client for the external membership
// registry that decides administrative privilege. The registry speaks
// JSON-RPC 2.0 over HTTP; a privilege check is a single request/response
// round trip and is never retried here.
package authority

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

// ErrUnavailable is returned when the authority cannot be reached, times
// out, or answers with an error payload. Privilege can not be proven in
// that case, so callers must treat it as a denial with a server-side cause.
var ErrUnavailable = errors.New("authorization authority unavailable")

const isAdminMethod = "IsAdmin"

// Client is a JSON-RPC client for the authorization authority.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs an authority client from config.
func NewClient(cfg config.AuthorityConfig) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("authority url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("authority api key is required")
	}

	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
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
	Result *bool     `json:"result"`
	Error  *rpcError `json:"error"`
}

// IsAdmin asks the authority whether the user with the given remote id holds
// administrative privilege. A false decision is not an error; any failure to
// obtain a decision is reported as ErrUnavailable.
func (c *Client) IsAdmin(ctx context.Context, remoteID string) (bool, error) {
	body, err := json.Marshal(rpcRequest{
		ID:      newRequestID(),
		Method:  isAdminMethod,
		Params:  []any{c.apiKey, remoteID},
		JSONRPC: "2.0",
	})
	if err != nil {
		return false, fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if decoded.Error != nil {
		return false, fmt.Errorf("%w: %s (code %d)", ErrUnavailable, decoded.Error.Message, decoded.Error.Code)
	}
	if decoded.Result == nil {
		return false, fmt.Errorf("%w: missing result", ErrUnavailable)
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
