package doi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPRegistrar deposits metadata with a remote registration agency endpoint that
// answers {"doi": "..."}.
type HTTPRegistrar struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPRegistrar constructs a registrar with sane defaults.
func NewHTTPRegistrar(endpoint, token string, timeout time.Duration) *HTTPRegistrar {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRegistrar{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

type depositResponse struct {
	DOI   string `json:"doi"`
	Error string `json:"error"`
}

// Assign implements Registrar.
func (r *HTTPRegistrar) Assign(ctx context.Context, meta Metadata) (string, error) {
	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode deposit metadata: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build deposit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deposit request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read deposit response: %w", err)
	}
	var payload depositResponse
	decodeErr := json.Unmarshal(raw, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := payload.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if decodeErr != nil {
			return "", fmt.Errorf("registrar responded %d: %s (undecodable body: %v)", resp.StatusCode, msg, decodeErr)
		}
		return "", fmt.Errorf("registrar responded %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode registrar response (status %d, body %q): %w", resp.StatusCode, truncate(string(raw), 200), decodeErr)
	}
	value := Normalize(payload.DOI)
	if !Valid(value) {
		return "", fmt.Errorf("registrar returned invalid doi %q", payload.DOI)
	}
	return value, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
