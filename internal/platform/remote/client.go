// Package remote implements the typed client for the two external systems.
// Both are reached through the same JSON-RPC-over-HTTP envelope; the remote
// API's inconsistently cased field set is isolated here so the engines only
// see the normalized shapes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/procure-finance-sync/internal/config"
)

// Client issues calls against the purchasing/receiving and payables systems.
// Every method returns *Fault for a remote-reported business fault and
// *TransportError for HTTP-level failures; neither is retried within a single
// engine invocation.
type Client interface {
	ListAttachments(ctx context.Context, table string, id int64) ([]Attachment, error)
	FetchAttachmentContent(ctx context.Context, table string, id int64, att Attachment) (string, error)
	AddAttachment(ctx context.Context, table string, id int64, name, contentB64, description string) error

	CreateOrder(ctx context.Context, payload map[string]interface{}) (int64, error)
	QueryOrder(ctx context.Context, remoteOrderID int64) (*OrderInfo, error)
	QueryOrderByNumber(ctx context.Context, orderNumber string) (*OrderInfo, error)
	CloseOrder(ctx context.Context, orderNumber, orderItem string) error

	CreatePayable(ctx context.Context, payload PayablePayload) (int64, error)
	QueryPayable(ctx context.Context, remotePayableID int64) (map[string]interface{}, error)

	ListSourceEntities(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]SourceEntity, error)
}

// httpClient is the production Client implementation
type httpClient struct {
	cfg    *config.RemoteConfig
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a remote client from explicit configuration. Credentials
// and endpoints are injected, never read from process-wide state.
func NewClient(logger *slog.Logger, cfg *config.RemoteConfig) Client {
	return &httpClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// envelope is the wire format both systems expect on every call
type envelope struct {
	Call      string                   `json:"call"`
	AppKey    string                   `json:"app_key"`
	AppSecret string                   `json:"app_secret"`
	Param     []map[string]interface{} `json:"param"`
}

// call posts one enveloped request and decodes the response object. A
// faultstring in the body is a business fault even on HTTP 200.
func (c *httpClient) call(ctx context.Context, endpoint, callName string, params map[string]interface{}) (map[string]interface{}, error) {
	payload := envelope{
		Call:      callName,
		AppKey:    c.cfg.AppKey,
		AppSecret: c.cfg.AppSecret,
		Param:     []map[string]interface{}{params},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for %s: %w", callName, err)
	}

	url := c.cfg.BaseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", callName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Remote call", "call", callName, "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: callName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: callName, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &TransportError{Op: callName, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if fault, ok := data["faultstring"].(string); ok && fault != "" {
		c.logger.Error("Remote fault", "call", callName, "fault", fault)
		return nil, &Fault{Call: callName, Message: fault}
	}

	return data, nil
}

// download follows an attachment download link and returns the raw bytes
func (c *httpClient) download(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: "download", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return io.ReadAll(resp.Body)
}

// Helpers for the remote API's loosely typed JSON values

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return i
	case string:
		var i int64
		if _, err := fmt.Sscanf(n, "%d", &i); err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func asFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
