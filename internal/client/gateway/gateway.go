// Package gateway translates worker operations into single HTTP calls to the
// Trace backend and the backend's JSON envelopes back into typed results.
//
// Every method takes the bearer token explicitly; an empty token omits the
// Authorization header. The gateway never touches the session itself.
//
// # Error Handling
//
// Failures surface as:
//   - common.ErrNetwork (wrapped) when the request could not be made;
//   - *ProtocolError (matches common.ErrNetwork) for a non-JSON body;
//   - *BackendError for a JSON error answer, matching common.ErrAuthExpired
//     when the status is 401.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/logging"
)

// maxBodySize limits how much of a response is read.
const maxBodySize = 5 * 1024 * 1024

// BaseURLFunc resolves the backend base URL for a call. It is consulted per
// call so a stored override takes effect without a restart.
type BaseURLFunc func(ctx context.Context) string

type Client struct {
	http      *http.Client
	baseURL   BaseURLFunc
	endpoints Endpoints
	logger    logging.Logger
}

func NewClient(httpClient *http.Client, baseURL BaseURLFunc, endpoints Endpoints, l logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{http: httpClient, baseURL: baseURL, endpoints: endpoints, logger: l.With("module", "gateway")}
}

// envelope holds the fields every backend answer may carry.
type envelope struct {
	Success *bool           `json:"success"`
	Error   json.RawMessage `json:"error"`
}

func (e envelope) message() string {
	if len(e.Error) == 0 || string(e.Error) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Error, &s); err == nil {
		return s
	}
	return string(e.Error)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	url := strings.TrimRight(c.baseURL(ctx), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", common.ErrNetwork, err)
	}

	c.logger.Debug(ctx, "backend response", "method", method, "path", path, "status", resp.StatusCode)

	ct := resp.Header.Get("Content-Type")
	if !isJSON(ct) {
		return &ProtocolError{Status: resp.StatusCode, ContentType: ct, Body: truncate(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &ProtocolError{Status: resp.StatusCode, ContentType: ct, Body: truncate(raw)}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok || (env.Success != nil && !*env.Success) {
		msg := env.message()
		if msg == "" {
			msg = fmt.Sprintf("backend service error (%d)", resp.StatusCode)
		}
		return &BackendError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &ProtocolError{Status: resp.StatusCode, ContentType: ct, Body: truncate(raw)}
		}
	}
	return nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
